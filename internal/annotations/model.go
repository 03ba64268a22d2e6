package annotations

import "time"

// Annotation is a single annotation event produced by a project member.
type Annotation struct {
	ID          int64     `json:"id"`
	Document    int64     `json:"document"`
	Member      int64     `json:"member"`
	Category    string    `json:"category"`
	Start       int       `json:"start"`
	End         int       `json:"end"`
	Text        string    `json:"text"`
	Perspective int64     `json:"perspective"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filters narrows the annotations returned by a Source. Nil fields are not applied.
type Filters struct {
	Dataset     *int64
	Discussion  *int64
	Perspective *int64
	Member      *int64
}

// Page is the result of a list call.
type Page struct {
	Results []Annotation `json:"results"`
	Count   int          `json:"count"`
}

// Matches reports whether a record passes the filters. Discussion has no
// counterpart on the record and is applied by the Postgres and API sources only.
func (f Filters) Matches(a Annotation) bool {
	if f.Dataset != nil && a.Document != *f.Dataset {
		return false
	}
	if f.Perspective != nil && a.Perspective != *f.Perspective {
		return false
	}
	if f.Member != nil && a.Member != *f.Member {
		return false
	}
	return true
}

package export

import (
	"bytes"
	"encoding/json"
)

// JSON renders items as an indented JSON array (two spaces), keys in field
// order and HTML characters left unescaped. An empty list renders as "[]".
func JSON[T Record](items []T) (string, error) {
	objects := make([]Object, 0, len(items))
	for _, item := range items {
		objects = append(objects, Object(item.Fields()))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(objects); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

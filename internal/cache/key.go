package cache

import "encoding/base64"

// Key derives the storage key for a request path. The query component is
// stripped first, so two requests to the same path that differ only in query
// parameters share one entry (the last response wins). The base64 form is
// filtered down to alphanumerics so the key is printable and storage-safe.
func Key(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '?' {
			path = path[:i]
			break
		}
	}
	enc := base64.StdEncoding.EncodeToString([]byte(path))
	out := make([]byte, 0, len(enc))
	for i := 0; i < len(enc); i++ {
		c := enc[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return "http_" + string(out)
}

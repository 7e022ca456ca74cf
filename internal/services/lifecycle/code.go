package lifecycle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeCode renders a submitted or stored display code as a trimmed
// string, so 1234, "1234" and " 1234 " all compare equal
func NormalizeCode(code any) string {
	switch v := code.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		text := strings.TrimSpace(v.String())
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return text
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

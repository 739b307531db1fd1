package backups

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/genproto/googleapis/type/latlng"
)

// Values that JSON cannot carry are written as single-key objects tagged
// with one of these keys. A plain map that happens to look like a tagged
// value is wrapped in tagMap.
const (
	tagInt   = "$int"
	tagTime  = "$time"
	tagBytes = "$bytes"
	tagGeo   = "$geo"
	tagRef   = "$ref"
	tagMap   = "$map"
)

// Line is one NDJSON record of a backup object.
type Line struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// RefResolver turns a relative document path ("users/u1") back into a
// reference. It is only called for values that were references.
type RefResolver func(path string) *firestore.DocumentRef

// EncodeLine renders one document as a JSON line without the newline.
func EncodeLine(id string, data map[string]interface{}) ([]byte, error) {
	enc, err := encodeMap(data)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return json.Marshal(struct {
		ID   string      `json:"id"`
		Data interface{} `json:"data"`
	}{id, enc})
}

// DecodeLine parses a line written by EncodeLine.
func DecodeLine(b []byte, refs RefResolver) (Line, error) {
	var raw struct {
		ID   string                 `json:"id"`
		Data map[string]interface{} `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Line{}, err
	}
	if raw.ID == "" {
		return Line{}, fmt.Errorf("line without id")
	}
	data, err := decodeMap(raw.Data, refs)
	if err != nil {
		return Line{}, fmt.Errorf("document %s: %w", raw.ID, err)
	}
	return Line{ID: raw.ID, Data: data}, nil
}

func encodeMap(m map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func encodeValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil, bool, string, float64:
		return x, nil
	case int64:
		return map[string]interface{}{tagInt: strconv.FormatInt(x, 10)}, nil
	case int:
		return map[string]interface{}{tagInt: strconv.Itoa(x)}, nil
	case time.Time:
		return map[string]interface{}{tagTime: x.UTC().Format(time.RFC3339Nano)}, nil
	case []byte:
		return map[string]interface{}{tagBytes: base64.StdEncoding.EncodeToString(x)}, nil
	case *latlng.LatLng:
		if x == nil {
			return nil, nil
		}
		return map[string]interface{}{tagGeo: map[string]interface{}{"lat": x.GetLatitude(), "lng": x.GetLongitude()}}, nil
	case *firestore.DocumentRef:
		if x == nil {
			return nil, nil
		}
		return map[string]interface{}{tagRef: relativePath(x.Path)}, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			ev, err := encodeValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]interface{}:
		enc, err := encodeMap(x)
		if err != nil {
			return nil, err
		}
		if looksTagged(x) {
			return map[string]interface{}{tagMap: enc}, nil
		}
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func looksTagged(m map[string]interface{}) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return strings.HasPrefix(k, "$")
	}
	return false
}

// relativePath strips "projects/p/databases/d/documents/" from a full path.
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

func decodeMap(m map[string]interface{}, refs RefResolver) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		dv, err := decodeValue(v, refs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}

func decodeValue(v interface{}, refs RefResolver) (interface{}, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case json.Number:
		return x.Float64()
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			dv, err := decodeValue(e, refs)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil
	case map[string]interface{}:
		if len(x) == 1 {
			for k, tv := range x {
				if strings.HasPrefix(k, "$") {
					return decodeTagged(k, tv, refs)
				}
			}
		}
		return decodeMap(x, refs)
	}
	return nil, fmt.Errorf("unexpected JSON value %T", v)
}

func decodeTagged(tag string, v interface{}, refs RefResolver) (interface{}, error) {
	switch tag {
	case tagInt:
		s, _ := v.(string)
		return strconv.ParseInt(s, 10, 64)
	case tagTime:
		s, _ := v.(string)
		return time.Parse(time.RFC3339Nano, s)
	case tagBytes:
		s, _ := v.(string)
		return base64.StdEncoding.DecodeString(s)
	case tagGeo:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bad geo point")
		}
		lat, err1 := number(m["lat"])
		lng, err2 := number(m["lng"])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("bad geo point")
		}
		return &latlng.LatLng{Latitude: lat, Longitude: lng}, nil
	case tagRef:
		s, _ := v.(string)
		if s == "" || refs == nil {
			return nil, fmt.Errorf("cannot resolve reference %q", s)
		}
		return refs(s), nil
	case tagMap:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("bad wrapped map")
		}
		return decodeMap(m, refs)
	}
	return nil, fmt.Errorf("unknown tag %q", tag)
}

func number(v interface{}) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	}
	return 0, fmt.Errorf("not a number")
}

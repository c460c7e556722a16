package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SystemFields are maintained by the store. Clients may send them; they are
// dropped before anything else looks at the payload.
var SystemFields = []string{"id", "createdAt", "updatedAt"}

// relationFields maps connect-style relation objects onto foreign key fields,
// so {"course": {"id": "c1"}} is the same as {"courseId": "c1"}.
var relationFields = map[string]string{
	"course":  "courseId",
	"lesson":  "lessonId",
	"quiz":    "quizId",
	"student": "studentId",
	"teacher": "teacherId",
}

// Payload is a decoded JSON object from a write request.
type Payload map[string]interface{}

// BindPayload reads the request body as a JSON object. Numbers are kept as
// json.Number so they survive the round trip into typed inputs.
func BindPayload(c *gin.Context) (Payload, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, NewInvalidBodyError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, NewInvalidBodyError(err)
	}
	if p == nil {
		p = Payload{}
	}
	return p.normalize(), nil
}

func (p Payload) normalize() Payload {
	for rel, fk := range relationFields {
		raw, ok := p[rel]
		if !ok {
			continue
		}
		obj, isObj := raw.(map[string]interface{})
		if !isObj {
			continue
		}
		if connect, ok := obj["connect"].(map[string]interface{}); ok {
			obj = connect
		}
		if id, ok := obj["id"]; ok {
			if _, explicit := p[fk]; !explicit {
				p[fk] = id
			}
		}
		delete(p, rel)
	}
	return p.Strip(SystemFields...)
}

// Strip drops derived fields. They are ignored, never rejected.
func (p Payload) Strip(fields ...string) Payload {
	for _, f := range fields {
		delete(p, f)
	}
	return p
}

func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns a string field, or "" when absent or not a string.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Take removes a key and returns its value.
func (p Payload) Take(key string) (interface{}, bool) {
	v, ok := p[key]
	if ok {
		delete(p, key)
	}
	return v, ok
}

// Decode fills a typed input struct from the payload and runs the binding
// validators declared on it.
func (p Payload) Decode(dst interface{}) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return NewInvalidBodyError(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &AppError{Kind: KindValidation, Message: fmt.Sprintf("invalid value for field %s", typeErr.Field), Err: err}
		}
		return NewInvalidBodyError(err)
	}
	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &AppError{
				Kind:    KindValidation,
				Message: fmt.Sprintf("field %s failed the %s rule", jsonFieldName(dst, fe), fe.Tag()),
				Err:     err,
			}
		}
		return NewInvalidBodyError(err)
	}
	return nil
}

// jsonFieldName reports a failed field by its JSON key when the field sits
// directly on dst.
func jsonFieldName(dst interface{}, fe validator.FieldError) string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if name := strings.Split(f.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
	}
	return fe.Field()
}

// ToJSONValue turns a response value into generic maps and slices so it can
// be projected field by field.
func ToJSONValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

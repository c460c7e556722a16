package access

// ownerFields names the field holding the owning user id, by resource.
var ownerFields = map[string]string{
	"Course":      "teacherId",
	"Enrollment":  "studentId",
	"Progress":    "studentId",
	"QuizAttempt": "studentId",
	"User":        "id",
}

// OwnerField returns the owner field of a resource. Resources without one
// cannot be accessed with own possession.
func OwnerField(resource string) (string, bool) {
	f, ok := ownerFields[resource]
	return f, ok
}

// OwnerOf reads the owner id out of a decoded record.
func OwnerOf(resource string, record map[string]interface{}) (string, bool) {
	field, ok := OwnerField(resource)
	if !ok {
		return "", false
	}
	s, ok := record[field].(string)
	return s, ok && s != ""
}

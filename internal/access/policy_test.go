package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFilterDropsUngrantedFields(t *testing.T) {
	p := NewPolicy().Grant("STUDENT", "Course", ActionRead, Any, "title", "id")
	g := p.Evaluate([]string{"STUDENT"}, "Course", ActionRead, Any)
	require.True(t, g.Granted)

	out := g.Filter(map[string]interface{}{
		"id":          "c1",
		"title":       "Web Dev",
		"description": "HTML and CSS",
	}).(map[string]interface{})

	assert.Equal(t, map[string]interface{}{"id": "c1", "title": "Web Dev"}, out)
	_, present := out["description"]
	assert.False(t, present)
}

func TestWriteFilterStripsSilently(t *testing.T) {
	p := NewPolicy().Grant("TEACHER", "Course", ActionUpdate, Any, "title")
	g := p.Evaluate([]string{"TEACHER"}, "Course", ActionUpdate, Any)

	out := g.FilterPayload(map[string]interface{}{"title": "x", "description": "y"})
	assert.Equal(t, map[string]interface{}{"title": "x"}, out)
}

func TestNestedNegation(t *testing.T) {
	p := NewPolicy().Grant("STUDENT", "Course", ActionRead, Any, "*", "!teacher.email")
	g := p.Evaluate([]string{"STUDENT"}, "Course", ActionRead, Any)

	out := g.Filter([]interface{}{
		map[string]interface{}{
			"id": "c1",
			"teacher": map[string]interface{}{
				"username": "mr.t",
				"email":    "t@example.com",
			},
		},
	}).([]interface{})

	require.Len(t, out, 1)
	course := out[0].(map[string]interface{})
	assert.Equal(t, "c1", course["id"])
	assert.Equal(t, map[string]interface{}{"username": "mr.t"}, course["teacher"])
}

func TestNestedAllowInsideCollections(t *testing.T) {
	p := NewPolicy().Grant("STUDENT", "Lesson", ActionRead, Any, "id", "videos.title")
	g := p.Evaluate([]string{"STUDENT"}, "Lesson", ActionRead, Any)

	out := g.Filter(map[string]interface{}{
		"id":      "l1",
		"content": "secret",
		"videos": []interface{}{
			map[string]interface{}{"id": "v1", "title": "intro", "url": "http://x"},
			map[string]interface{}{"id": "v2", "title": "outro", "url": "http://y"},
		},
	}).(map[string]interface{})

	assert.Equal(t, map[string]interface{}{
		"id": "l1",
		"videos": []interface{}{
			map[string]interface{}{"title": "intro"},
			map[string]interface{}{"title": "outro"},
		},
	}, out)
}

func TestScalarUnderPartialAllowIsDropped(t *testing.T) {
	g := NewPolicy().Grant("R", "X", ActionRead, Any, "meta.name").Evaluate([]string{"R"}, "X", ActionRead, Any)
	out := g.Filter(map[string]interface{}{"meta": "flat", "other": 1}).(map[string]interface{})
	assert.Empty(t, out)
}

func TestRolesAreUnioned(t *testing.T) {
	p := NewPolicy().
		Grant("A", "User", ActionRead, Any, "*", "!email").
		Grant("B", "User", ActionRead, Any, "email")

	g := p.Evaluate([]string{"A", "B"}, "User", ActionRead, Any)
	out := g.Filter(map[string]interface{}{"id": "u1", "email": "a@b.c"})
	assert.Equal(t, map[string]interface{}{"id": "u1", "email": "a@b.c"}, out)

	only := p.Evaluate([]string{"A"}, "User", ActionRead, Any)
	assert.False(t, only.Allows("email"))
	assert.True(t, only.Allows("id"))
}

func TestAnyImpliesOwn(t *testing.T) {
	p := NewPolicy().Grant("TEACHER", "Lesson", ActionRead, Any)

	assert.True(t, p.Evaluate([]string{"TEACHER"}, "Lesson", ActionRead, Own).Granted)
	assert.True(t, p.Evaluate([]string{"TEACHER"}, "Lesson", ActionRead, Any).Granted)

	ownOnly := NewPolicy().Grant("STUDENT", "Progress", ActionRead, Own)
	assert.False(t, ownOnly.Evaluate([]string{"STUDENT"}, "Progress", ActionRead, Any).Granted)
	assert.True(t, ownOnly.Evaluate([]string{"STUDENT"}, "Progress", ActionRead, Own).Granted)
}

func TestNoGrantFiltersEverything(t *testing.T) {
	g := NewPolicy().Evaluate([]string{"STUDENT"}, "Course", ActionDelete, Any)
	assert.False(t, g.Granted)
	assert.Equal(t, map[string]interface{}{}, g.Filter(map[string]interface{}{"id": "x"}))
	assert.Empty(t, g.AllowedFields())
}

func TestAllowedFields(t *testing.T) {
	p := NewPolicy().
		Grant("A", "Course", ActionRead, Any, "title", "id").
		Grant("ADMIN", "Course", ActionRead, Any, "*")

	assert.Equal(t, []string{"id", "title"}, p.Evaluate([]string{"A"}, "Course", ActionRead, Any).AllowedFields())
	assert.Equal(t, []string{"*"}, p.Evaluate([]string{"A", "ADMIN"}, "Course", ActionRead, Any).AllowedFields())
}

func TestDecide(t *testing.T) {
	p := DefaultPolicy()

	student := Actor{ID: "s1", Roles: []string{"STUDENT"}}
	teacher := Actor{ID: "t1", Roles: []string{"TEACHER"}}
	admin := Actor{ID: "a1", Roles: []string{"ADMIN"}}

	d := p.Decide(student, "Course", ActionDelete)
	assert.False(t, d.Granted())

	d = p.Decide(student, "Enrollment", ActionCreate)
	require.True(t, d.Granted())
	assert.Equal(t, Own, d.Possession)
	assert.True(t, d.Owns("s1"))
	assert.False(t, d.Owns("s2"))
	scope, scoped := d.Scope()
	assert.True(t, scoped)
	assert.Equal(t, "s1", scope)

	d = p.Decide(teacher, "Course", ActionUpdate)
	require.True(t, d.Granted())
	assert.Equal(t, Own, d.Possession)
	assert.False(t, d.Grant.Allows("teacherId"))
	assert.True(t, d.Grant.Allows("title"))

	d = p.Decide(admin, "Course", ActionUpdate)
	assert.Equal(t, Any, d.Possession)
	assert.True(t, d.Owns("anyone"))

	d = p.Decide(admin, "Dashboard", ActionRead)
	assert.True(t, d.Granted())
	assert.False(t, p.Decide(teacher, "Dashboard", ActionRead).Granted())
}

func TestOwnDeniedWithoutOwnerField(t *testing.T) {
	p := NewPolicy().Grant("STUDENT", "Lesson", ActionUpdate, Own)
	d := p.Decide(Actor{ID: "s1", Roles: []string{"STUDENT"}}, "Lesson", ActionUpdate)
	assert.False(t, d.Granted())

	manual := Decision{Resource: "Lesson", Possession: Own, ActorID: "s1"}
	assert.False(t, manual.Owns("s1"))
}

func TestOwnsPtr(t *testing.T) {
	d := Decision{Resource: "Course", Possession: Own, ActorID: "t1"}
	id := "t1"
	assert.True(t, d.OwnsPtr(&id))
	assert.False(t, d.OwnsPtr(nil))

	d.Possession = Any
	assert.True(t, d.OwnsPtr(nil))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy([]byte(`
TEACHER:
  Course:
    read:any: ["title"]
    update:own: ["*", "!teacherId"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"TEACHER"}, p.Roles())
	assert.True(t, p.Evaluate([]string{"TEACHER"}, "Course", ActionUpdate, Own).Granted)
	assert.False(t, p.Evaluate([]string{"TEACHER"}, "Course", ActionUpdate, Any).Granted)

	_, err = ParsePolicy([]byte("TEACHER:\n  Course:\n    read: [\"*\"]\n"))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte("TEACHER:\n  Course:\n    view:any: [\"*\"]\n"))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte("TEACHER:\n  Course:\n    read:mine: [\"*\"]\n"))
	assert.Error(t, err)
}

func TestOwnerOf(t *testing.T) {
	owner, ok := OwnerOf("Progress", map[string]interface{}{"studentId": "s1"})
	assert.True(t, ok)
	assert.Equal(t, "s1", owner)

	_, ok = OwnerOf("Video", map[string]interface{}{"studentId": "s1"})
	assert.False(t, ok)
}

func TestHolderSwapsPolicy(t *testing.T) {
	first := NewPolicy().Grant("A", "X", ActionRead, Any)
	h := NewHolder(first)
	assert.Same(t, first, h.Policy())

	second := NewPolicy()
	h.Store(second)
	assert.Same(t, second, h.Policy())

	h.Store(nil)
	assert.Same(t, second, h.Policy())
}

func TestActionForMethod(t *testing.T) {
	cases := map[string]Action{
		"GET":    ActionRead,
		"POST":   ActionCreate,
		"PATCH":  ActionUpdate,
		"DELETE": ActionDelete,
	}
	for method, want := range cases {
		got, ok := ActionForMethod(method)
		assert.True(t, ok, method)
		assert.Equal(t, want, got, method)
	}
	_, ok := ActionForMethod("OPTIONS")
	assert.False(t, ok)
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.Len(t, seed.Users, 3)
	require.Len(t, seed.Products, 3)

	assert.Equal(t, "zhangsan@example.com", seed.Users[0].Email)
	assert.Equal(t, "MacBook Pro", seed.Products[0].Name)
	assert.Equal(t, 12999.0, seed.Products[0].Price)
}

func TestParseSeedRejectsDuplicateEmail(t *testing.T) {
	_, err := ParseSeed([]byte(`
users:
  - {id: 1, name: a, email: same@example.com}
  - {id: 2, name: b, email: same@example.com}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate email")
}

func TestParseSeedRejectsMissingFields(t *testing.T) {
	_, err := ParseSeed([]byte(`
users:
  - {id: 1, name: "", email: a@example.com}
`))
	require.Error(t, err)
}

func TestUserInputValidation(t *testing.T) {
	name := "  Ada "
	blank := "   "
	email := "ada@example.com"

	assert.ErrorIs(t, UserInput{Name: &name}.ValidateCreate(), ErrMissingFields)
	assert.ErrorIs(t, UserInput{Name: &name, Email: &blank}.ValidateCreate(), ErrMissingFields)
	assert.NoError(t, UserInput{Name: &name, Email: &email}.ValidateCreate())

	n := UserInput{Name: &name, Email: &blank}.Normalize()
	require.NotNil(t, n.Name)
	assert.Equal(t, "Ada", *n.Name)
	assert.Nil(t, n.Email)

	assert.True(t, UserInput{Email: &blank}.Empty())
	assert.False(t, UserInput{Email: &email}.Empty())
}

func TestMatchesQuery(t *testing.T) {
	u := User{Name: "Li Si", Email: "lisi@example.com"}
	assert.True(t, MatchesQuery(u, ""))
	assert.True(t, MatchesQuery(u, "Li"))
	assert.True(t, MatchesQuery(u, "lisi@"))
	assert.False(t, MatchesQuery(u, "nobody"))
}

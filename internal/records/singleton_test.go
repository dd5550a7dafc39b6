package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/internal/records"
	"github.com/dmitrymomot/folio/internal/schema"
	"github.com/dmitrymomot/folio/internal/sheet"
	"github.com/dmitrymomot/folio/pkg/validator"
)

func TestSingleton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newSingleton := func() (*records.Singleton, sheet.Backend) {
		b := sheet.NewMemory()
		return records.NewSingleton(b, records.WithSchemas(schema.DefaultCatalog().Registry())), b
	}

	t.Run("empty before first write", func(t *testing.T) {
		t.Parallel()
		s, _ := newSingleton()

		got, err := s.Get(ctx, "Settings")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("headers come from the first payload", func(t *testing.T) {
		t.Parallel()
		s, b := newSingleton()

		require.NoError(t, s.Write(ctx, "Settings", record.FromPairs("siteTitle", "Folio", "location", "Berlin")))

		headers, err := b.ReadHeaders(ctx, "Settings")
		require.NoError(t, err)
		assert.Equal(t, []string{"siteTitle", "location"}, headers)

		got, err := s.Get(ctx, "Settings")
		require.NoError(t, err)
		assert.Equal(t, "Folio", got.Value("siteTitle").String())
		assert.Equal(t, "Berlin", got.Value("location").String())
	})

	t.Run("writes replace the single row", func(t *testing.T) {
		t.Parallel()
		s, b := newSingleton()

		require.NoError(t, s.Write(ctx, "Hero", record.FromPairs("title", "Hi", "subtitle", "there")))
		require.NoError(t, s.Write(ctx, "Hero", record.FromPairs("title", "Hello", "cta", "Contact")))

		rows, err := b.ListRows(ctx, "Hero")
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		got, err := s.Get(ctx, "Hero")
		require.NoError(t, err)
		assert.Equal(t, []string{"title", "subtitle", "cta"}, got.Keys())
		assert.Equal(t, "Hello", got.Value("title").String())
		assert.True(t, got.Value("subtitle").IsEmpty(), "fields left out of a write are cleared")
		assert.Equal(t, "Contact", got.Value("cta").String())
	})

	t.Run("structured and sanitized values", func(t *testing.T) {
		t.Parallel()
		s, _ := newSingleton()

		social := record.ValueOf(map[string]any{"github": "https://github.com/x"})
		require.NoError(t, s.Write(ctx, "Settings", record.FromPairs(
			"siteTitle", "<i>Folio</i><script>x()</script>",
			"social", social,
		)))

		got, err := s.Get(ctx, "Settings")
		require.NoError(t, err)
		assert.Equal(t, "Folio", got.Value("siteTitle").String())
		assert.True(t, social.Equal(got.Value("social")))
	})

	t.Run("validation in partial mode", func(t *testing.T) {
		t.Parallel()
		s, _ := newSingleton()

		err := s.Write(ctx, "Settings", record.FromPairs("email", "not-an-email"))
		require.True(t, validator.IsValidationError(err))
		assert.True(t, validator.ExtractValidationErrors(err).Has("email"))

		got, err := s.Get(ctx, "Settings")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		s, _ := newSingleton()
		assert.ErrorIs(t, s.Write(ctx, "", record.New(0)), records.ErrEmptyName)
	})
}

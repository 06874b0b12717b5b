package diff

import (
	"errors"
	"testing"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_LoadsEveryKind(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	for kind := range domain.ValidDocumentKinds {
		table, err := reg.Table(kind)
		require.NoError(t, err, "kind=%s", kind)
		assert.Equal(t, kind, table.Kind)
		assert.Equal(t, "experience_id", table.Key)
		assert.NotEmpty(t, table.Properties)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Table("brochure")
	assert.Error(t, err)
}

func TestParseTable_Defaults(t *testing.T) {
	table, err := ParseTable([]byte(`
kind: raw
properties:
  - name: title
    partition: commercial
  - name: supplier_id
  - name: tags
    partition: functional
    wire_key: tag_codes
    path: meta.tags
`))
	require.NoError(t, err)

	assert.Equal(t, "experience_id", table.Key)

	title, ok := table.Property("title")
	require.True(t, ok)
	assert.Equal(t, "commercial.title", title.Path)
	assert.Equal(t, "title", title.WireKey)
	assert.Equal(t, EqualityOrdered, title.Equality)

	supplier, ok := table.Property("supplier_id")
	require.True(t, ok)
	assert.Equal(t, PartitionTop, supplier.Partition)
	assert.Equal(t, "supplier_id", supplier.Path)

	tags, ok := table.Property("tags")
	require.True(t, ok)
	assert.Equal(t, "meta.tags", tags.Path)
	assert.Equal(t, "tag_codes", tags.WireKey)

	assert.Equal(t, []string{"title", "supplier_id", "tags"}, table.Names())
}

func TestParseTable_Rejects(t *testing.T) {
	cases := map[string]string{
		"duplicate":         "kind: raw\nproperties:\n  - name: a\n  - name: a\n",
		"unknown partition": "kind: raw\nproperties:\n  - name: a\n    partition: marketing\n",
		"unknown transform": "kind: raw\nproperties:\n  - name: a\n    transform: upper\n",
		"missing name":      "kind: raw\nproperties:\n  - partition: top\n",
		"bad yaml":          "kind: [",
	}
	for name, src := range cases {
		_, err := ParseTable([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestValidate_RequiredAndLength(t *testing.T) {
	table := rawTable(t)
	fields := BuildFields(rawData(), table)

	require.NoError(t, table.Validate(fields))

	title := fields["title"]
	title.Value = ""
	fields["title"] = title

	err := table.Validate(fields)
	require.Error(t, err)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "title")
	assert.Len(t, verr.Fields, 1)
}

func TestValidateField_MaxLength(t *testing.T) {
	table := rawTable(t)
	long := make([]rune, 121)
	for i := range long {
		long[i] = 'é'
	}

	err := table.ValidateField("title", domain.Field{Value: string(long), Required: true})
	assert.Error(t, err)

	err = table.ValidateField("title", domain.Field{Value: string(long[:120]), Required: true})
	assert.NoError(t, err)
}

func TestValidateField_FieldRequiredFlagWins(t *testing.T) {
	table := rawTable(t)
	assert.NoError(t, table.ValidateField("title", domain.Field{Value: "", Required: false}))
	assert.Error(t, table.ValidateField("product_brand", domain.Field{Value: nil, Required: true}))
}

func TestValidateField_UnknownField(t *testing.T) {
	table := rawTable(t)
	err := table.ValidateField("nope", domain.Field{})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamba/avro/v2/ocf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
  "type": "record",
  "name": "User",
  "namespace": "com.example.users",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "email", "type": "string", "doc": "primary contact"},
    {"name": "address", "type": ["null", {
      "type": "record",
      "name": "Address",
      "fields": [
        {"name": "street", "type": "string"},
        {"name": "zip_code", "type": "string"}
      ]
    }]},
    {"name": "phones", "type": {"type": "array", "items": {
      "type": "record",
      "name": "Phone",
      "fields": [{"name": "number", "type": "string"}]
    }}},
    {"name": "tags", "type": {"type": "map", "values": "string"}}
  ]
}`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user.avsc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAvroSchema_Columns(t *testing.T) {
	src := NewAvroSchema(writeSchema(t, userSchema))

	cols, err := src.Columns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "id"},
		{Name: "email", Comment: "primary contact"},
		{Name: "address"},
		{Name: "address.street"},
		{Name: "address.zip_code"},
		{Name: "phones"},
		{Name: "phones.number"},
		{Name: "tags"},
	}, cols)
}

func TestAvroSchema_Namespace(t *testing.T) {
	ns, err := NewAvroSchema(writeSchema(t, userSchema)).Namespace()
	require.NoError(t, err)
	assert.Equal(t, "com.example.users", ns)
}

func TestParseAvroSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"not json", `{"type": "record",`},
		{"primitive", `"string"`},
		{"enum", `{"type": "enum", "name": "Color", "symbols": ["RED"]}`},
		{"bad nested value", `{"type": "record", "name": "R", "fields": [{"name": "a", "type": 42}]}`},
		{"field without type", `{"type": "record", "name": "R", "fields": [{"name": "a"}]}`},
		{"undefined reference", `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "Missing"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAvroSchema([]byte(tt.schema))
			assert.Error(t, err)
		})
	}
}

func TestParseAvroSchema_TopLevelUnion(t *testing.T) {
	cols, err := ParseAvroSchema([]byte(`[
  {"type": "record", "name": "A", "fields": [{"name": "first_name", "type": "string"}]},
  {"type": "record", "name": "B", "fields": [{"name": "ssn", "type": "string"}]}
]`))
	require.NoError(t, err)

	assert.Equal(t, []Column{{Name: "first_name"}, {Name: "ssn"}}, cols)
}

func TestParseAvroSchema_NamedTypeReference(t *testing.T) {
	cols, err := ParseAvroSchema([]byte(`{
  "type": "record",
  "name": "Employee",
  "namespace": "com.example.hr",
  "fields": [
    {"name": "home", "type": {
      "type": "record",
      "name": "Address",
      "fields": [{"name": "city", "type": "string", "doc": "city of residence"}]
    }},
    {"name": "work", "type": ["null", "Address"]},
    {"name": "previous", "type": {"type": "array", "items": "com.example.hr.Address"}}
  ]
}`))
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "home"},
		{Name: "home.city", Comment: "city of residence"},
		{Name: "work"},
		{Name: "work.city", Comment: "city of residence"},
		{Name: "previous"},
		{Name: "previous.city", Comment: "city of residence"},
	}, cols)
}

func TestParseAvroSchema_RecursiveType(t *testing.T) {
	cols, err := ParseAvroSchema([]byte(`{
  "type": "record",
  "name": "Node",
  "fields": [
    {"name": "value", "type": "string"},
    {"name": "next", "type": ["null", "Node"]}
  ]
}`))
	require.NoError(t, err)

	assert.Equal(t, []Column{{Name: "value"}, {Name: "next"}}, cols)
}

func TestParseAvroSchema_SameNameInSeparateDocuments(t *testing.T) {
	_, err := ParseAvroSchema([]byte(`{"type": "record", "name": "Row", "fields": [{"name": "a", "type": "string"}]}`))
	require.NoError(t, err)

	cols, err := ParseAvroSchema([]byte(`{"type": "record", "name": "Row", "fields": [{"name": "ssn", "type": "string"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "ssn"}}, cols)
}

type customerRecord struct {
	ID    int64  `avro:"customer_id"`
	Email string `avro:"email"`
}

const customerSchema = `{
  "type": "record",
  "name": "Customer",
  "namespace": "com.example.crm",
  "fields": [
    {"name": "customer_id", "type": "long"},
    {"name": "email", "type": "string", "doc": "login address"}
  ]
}`

func writeAvroFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.avro")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc, err := ocf.NewEncoder(customerSchema, f)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(customerRecord{ID: 1, Email: "a@example.com"}))
	require.NoError(t, enc.Close())
	return path
}

func TestAvroFile_Columns(t *testing.T) {
	src := NewAvroFile(writeAvroFile(t))
	assert.Equal(t, KindAvroFile, src.Type())

	cols, err := src.Columns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "customer_id"},
		{Name: "email", Comment: "login address"},
	}, cols)
}

func TestAvroFile_NotContainer(t *testing.T) {
	src := NewAvroFile(writeSchema(t, customerSchema))

	_, err := src.Columns(context.Background())
	assert.Error(t, err)
}

func TestAvroFile_Missing(t *testing.T) {
	_, err := NewAvroFile(filepath.Join(t.TempDir(), "missing.avro")).Columns(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package source

import (
	"context"
	"fmt"
	"os"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

const (
	// KindAvro reads the field names of an Avro schema (.avsc).
	KindAvro = "avro"
	// KindAvroFile reads the writer schema embedded in an Avro object
	// container file (.avro).
	KindAvroFile = "avro-file"
)

// AvroSchema is an Avro schema definition in its JSON form.
//
// Fields of nested records (directly, through unions, arrays, maps, or named
// type references) are reported with dotted names, so a record field
// "address" holding a "city" field yields "address" and "address.city".
// Field docs become comments.
type AvroSchema struct {
	path string
}

// NewAvroSchema creates an Avro schema source.
func NewAvroSchema(path string) *AvroSchema {
	return &AvroSchema{path: path}
}

func (a *AvroSchema) Type() string { return KindAvro }
func (a *AvroSchema) Path() string { return a.path }

// Columns parses the schema and returns its fields in declaration order.
func (a *AvroSchema) Columns(ctx context.Context) ([]Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read avro schema: %w", err)
	}
	return ParseAvroSchema(data)
}

// Namespace returns the namespace of the top-level record.
func (a *AvroSchema) Namespace() (string, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return "", fmt.Errorf("failed to read avro schema: %w", err)
	}
	records, err := avroRecords(data)
	if err != nil {
		return "", err
	}
	return records[0].Namespace(), nil
}

// AvroFile is an Avro object container file. Only the header is read: the
// columns are the fields of the writer schema stored under avro.schema.
type AvroFile struct {
	path string
}

// NewAvroFile creates an Avro container file source.
func NewAvroFile(path string) *AvroFile {
	return &AvroFile{path: path}
}

func (a *AvroFile) Type() string { return KindAvroFile }
func (a *AvroFile) Path() string { return a.path }

// Columns reads the embedded writer schema and returns its fields.
func (a *AvroFile) Columns(ctx context.Context) ([]Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open avro file: %w", err)
	}
	defer f.Close()

	dec, err := ocf.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read avro file header: %w", err)
	}
	schema, ok := dec.Metadata()["avro.schema"]
	if !ok {
		return nil, fmt.Errorf("avro file has no embedded schema")
	}
	return ParseAvroSchema(schema)
}

// ParseAvroSchema extracts the fields of an Avro schema document. The
// document must be a valid Avro schema holding at least one record.
func ParseAvroSchema(data []byte) ([]Column, error) {
	records, err := avroRecords(data)
	if err != nil {
		return nil, err
	}

	var cols []Column
	for _, rec := range records {
		cols = appendAvroFields(cols, "", rec, map[string]bool{})
	}
	return cols, nil
}

func avroRecords(data []byte) ([]*avro.RecordSchema, error) {
	// A private cache keeps named types of unrelated documents apart.
	schema, err := avro.ParseWithCache(string(data), "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("invalid avro schema: %w", err)
	}
	records := findRecords(schema)
	if len(records) == 0 {
		return nil, fmt.Errorf("invalid avro schema: no record definition")
	}
	return records, nil
}

// appendAvroFields walks rec depth first. path holds the records being
// expanded, so a recursive type stops at its own reference while a type
// reused by sibling fields is expanded each time.
func appendAvroFields(cols []Column, prefix string, rec *avro.RecordSchema, path map[string]bool) []Column {
	path[rec.FullName()] = true
	defer delete(path, rec.FullName())

	for _, f := range rec.Fields() {
		name := prefix + f.Name()
		cols = append(cols, Column{Name: name, Comment: f.Doc()})

		for _, nested := range findRecords(f.Type()) {
			if path[nested.FullName()] {
				continue
			}
			cols = appendAvroFields(cols, name+".", nested, path)
		}
	}
	return cols
}

// findRecords returns the record schemas reachable from schema without
// entering record fields.
func findRecords(schema avro.Schema) []*avro.RecordSchema {
	switch s := schema.(type) {
	case *avro.RecordSchema:
		return []*avro.RecordSchema{s}
	case *avro.RefSchema:
		return findRecords(s.Schema())
	case *avro.UnionSchema:
		var records []*avro.RecordSchema
		for _, branch := range s.Types() {
			records = append(records, findRecords(branch)...)
		}
		return records
	case *avro.ArraySchema:
		return findRecords(s.Items())
	case *avro.MapSchema:
		return findRecords(s.Values())
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForeignKey is one column-level foreign key read from the live schema.
type ForeignKey struct {
	Table     string `gorm:"column:table_name"`
	Column    string `gorm:"column:column_name"`
	RefTable  string `gorm:"column:ref_table_name"`
	RefColumn string `gorm:"column:ref_column_name"`
}

const mysqlForeignKeys = `
SELECT TABLE_NAME AS table_name,
       COLUMN_NAME AS column_name,
       REFERENCED_TABLE_NAME AS ref_table_name,
       REFERENCED_COLUMN_NAME AS ref_column_name
FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = DATABASE()
  AND REFERENCED_TABLE_NAME IS NOT NULL`

const postgresForeignKeys = `
SELECT kcu.table_name AS table_name,
       kcu.column_name AS column_name,
       ccu.table_name AS ref_table_name,
       ccu.column_name AS ref_column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = current_schema()`

const sqliteForeignKeys = `
SELECT m.name AS table_name,
       p."from" AS column_name,
       p."table" AS ref_table_name,
       COALESCE(p."to", 'id') AS ref_column_name
FROM sqlite_master m
JOIN pragma_foreign_key_list(m.name) p
WHERE m.type = 'table'`

// SchemaRepository reads constraint metadata and runs deletes against
// tables whose names are only known at runtime.
type SchemaRepository struct {
	DB *gorm.DB
}

func NewSchemaRepository(db *gorm.DB) *SchemaRepository {
	return &SchemaRepository{DB: db}
}

func (r *SchemaRepository) WithTx(tx *gorm.DB) *SchemaRepository {
	return &SchemaRepository{DB: tx}
}

// ForeignKeys lists every foreign key of the current database or schema.
func (r *SchemaRepository) ForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	var query string
	switch name := r.DB.Dialector.Name(); name {
	case "mysql":
		query = mysqlForeignKeys
	case "postgres":
		query = postgresForeignKeys
	case "sqlite":
		query = sqliteForeignKeys
	default:
		return nil, fmt.Errorf("foreign key discovery not supported for dialect %q", name)
	}

	var fks []ForeignKey
	if err := r.DB.WithContext(ctx).Raw(query).Scan(&fks).Error; err != nil {
		return nil, fmt.Errorf("read foreign keys: %w", err)
	}
	return fks, nil
}

// DeleteWhere removes the rows of table whose column equals value. Both
// identifiers are quoted by the dialect.
func (r *SchemaRepository) DeleteWhere(ctx context.Context, table, column string, value interface{}) (int64, error) {
	res := r.DB.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: table}, clause.Column{Name: column}, value)
	return res.RowsAffected, res.Error
}

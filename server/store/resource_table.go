package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

type queryBuilder interface {
	ToSQL() (string, []interface{}, error)
}

type tableDescriptor struct {
	tableName   string
	fieldPrefix string
	idColName   string
	eTagColName string
	columns     map[string]struct{}
	isMutable   bool
}

// ResourceTable stores one kind of resource in a SQL table, and knows how to map the resource's
// search fields onto the table's columns so that search filters can be run as SQL.
type ResourceTable struct {
	logger.Log
	tableDescriptor
	db           *DB
	schema       search.Schema
	resourceType reflect.Type
	columnByName map[search.FieldName]string
}

// NewResourceTable creates a table for resources of the same type as resource, searchable by the
// fields in schema. Panics if the model does not follow the db tag conventions (see MustDBModel)
// or if a schema field has no matching column.
func NewResourceTable(db *DB, logFactory logger.LogFactory, resource models.FieldResource, schema search.Schema) *ResourceTable {
	desc := mustTableDescriptor(resource, "")
	t := reflect.TypeOf(resource)
	if t.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("expected resource to be a pointer, found: %T", resource))
	}
	columnByName := make(map[search.FieldName]string)
	for _, field := range schema.Fields() {
		col := makeColName(desc.fieldPrefix, field.Name.String())
		if _, ok := desc.columns[col]; !ok {
			panic(fmt.Sprintf("expected %q model to contain a field with a \"db\" tag matching %q", desc.tableName, col))
		}
		columnByName[field.Name] = col
	}
	return &ResourceTable{
		Log:             logFactory(fmt.Sprintf("%s_table", desc.tableName)),
		tableDescriptor: desc,
		db:              db,
		schema:          schema,
		resourceType:    t.Elem(),
		columnByName:    columnByName,
	}
}

// MustDBModel verifies a resource model matches our conventions and contains suitable "db" tags.
//   - Model must contain one or more "db" tags
//   - All "db" tags must have a common field prefix e.g subscriber_
//   - There must be a prefix_id field e.g. subscriber_id
//   - If the model is a models.MutableResource it must have a prefix_etag field e.g. subscriber_etag
func MustDBModel(resource models.Resource) {
	mustTableDescriptor(resource, "")
}

// Dialect returns the goqu dialect (aka SQL Driver e.g. sqlite3, postgres etc.) in use.
func (d *ResourceTable) Dialect() goqu.DialectWrapper {
	return goqu.Dialect(d.db.DriverName())
}

func (d *ResourceTable) TableName() string {
	return d.tableName
}

// Column returns the name of the column holding the named search field.
func (d *ResourceTable) Column(field search.FieldName) (string, error) {
	col, ok := d.columnByName[field]
	if !ok {
		return "", gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Unknown field: %q", field))
	}
	return col, nil
}

// ReadByID reads an existing resource, looking it up by ResourceID.
// Returns gerror.ErrNotFound if the resource does not exist.
func (d *ResourceTable) ReadByID(ctx context.Context, txOrNil *Tx, id models.ResourceID, resource models.Resource) error {
	return d.ReadWhere(ctx, txOrNil, resource, goqu.Ex{d.idColName: id})
}

// ReadWhere reads an existing resource, looking it up using the supplied where clauses.
// Returns gerror.ErrNotFound if the resource does not exist.
func (d *ResourceTable) ReadWhere(ctx context.Context, txOrNil *Tx, resource models.Resource, where ...goqu.Expression) error {
	return d.ReadIn(ctx, txOrNil, resource, d.Dialect().From(d.tableName).Select(resource).Where(where...))
}

// ReadIn reads an existing resource from the supplied select dataset.
// Returns gerror.ErrNotFound if the resource does not exist.
func (d *ResourceTable) ReadIn(ctx context.Context, txOrNil *Tx, resource models.Resource, ds *goqu.SelectDataset) error {
	ds = ds.Limit(1)
	return d.db.Read(txOrNil, func(db Reader) error {
		query, args, err := ds.ToSQL()
		if err != nil {
			return fmt.Errorf("error generating query: %w", err)
		}
		d.LogQuery(query, args)
		found, err := db.ScanStructContext(ctx, resource, query, args...)
		if err != nil {
			return MakeStandardDBError(err)
		}
		if !found {
			return gerror.NewErrNotFound("Not Found")
		}
		return nil
	})
}

// Create a new resource.
// Returns gerror.ErrAlreadyExists if a resource with matching unique properties already exists.
func (d *ResourceTable) Create(ctx context.Context, txOrNil *Tx, resource models.Resource) (err error) {
	err = resource.Validate()
	if err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	if mutable, ok := resource.(models.MutableResource); ok {
		eTag, hashErr := MakeETag(resource)
		if hashErr != nil {
			return hashErr
		}
		mutable.SetETag(eTag)
		defer func() {
			if err != nil {
				mutable.SetETag("")
			}
		}()
	}
	return d.db.Write(txOrNil, func(db Writer) error {
		_, err := d.LogInsert(db.Insert(d.tableName).Rows(resource)).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error executing create query: %w", MakeStandardDBError(err))
		}
		return nil
	})
}

// DeleteByID idempotently deletes one resource by id.
func (d *ResourceTable) DeleteByID(ctx context.Context, txOrNil *Tx, id models.ResourceID) error {
	return d.DeleteWhere(ctx, txOrNil, goqu.Ex{d.idColName: id})
}

// DeleteWhere idempotently deletes one or more resources that match the supplied where clauses.
func (d *ResourceTable) DeleteWhere(ctx context.Context, txOrNil *Tx, where ...goqu.Expression) error {
	return d.db.Write(txOrNil, func(db Writer) error {
		_, err := d.logDelete(db.Delete(d.tableName).Where(where...)).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error executing delete query: %w", MakeStandardDBError(err))
		}
		return nil
	})
}

// UpdateByID updates an existing resource. Identifies the resource by id. Overrides all previous values using the supplied model.
// Applies optimistic locking if the resource supports models.MutableResource.
// Returns gerror.ErrOptimisticLockFailed if there is an optimistic lock mismatch.
func (d *ResourceTable) UpdateByID(ctx context.Context, txOrNil *Tx, resource models.Resource) error {
	return d.updateWhere(ctx, txOrNil, resource, goqu.Ex{d.idColName: resource.GetID()})
}

func (d *ResourceTable) updateWhere(ctx context.Context, txOrNil *Tx, resource models.Resource, where ...goqu.Expression) (err error) {
	err = resource.Validate()
	if err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	mutable, ok := resource.(models.MutableResource)
	if ok {
		origETag := mutable.GetETag()
		eTag, hashErr := MakeETag(resource)
		if hashErr != nil {
			return hashErr
		}
		mutable.SetETag(eTag)
		if origETag != models.ETagAny {
			where = append(where, goqu.Ex{d.eTagColName: origETag})
		}
		defer func() {
			if err != nil {
				mutable.SetETag(origETag)
			}
		}()
	}
	return d.db.Write(txOrNil, func(db Writer) error {
		res, err := d.LogUpdate(db.Update(d.tableName).Set(resource).Where(where...)).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error executing update query: %w", MakeStandardDBError(err))
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading rows affected: %w", MakeStandardDBError(err))
		}
		if rowsAffected == 0 {
			if mutable == nil {
				return gerror.NewErrNotFound(fmt.Sprintf("%s does not exist", resource.GetID()))
			}
			return gerror.NewErrOptimisticLockFailed("ETag does not match")
		}
		return nil
	})
}

// Find returns any one resource matching filter.
// Returns gerror.ErrNotFound if no resource matches.
func (d *ResourceTable) Find(ctx context.Context, txOrNil *Tx, filter search.Filter) (models.FieldResource, error) {
	where, err := d.Where(filter)
	if err != nil {
		return nil, err
	}
	resource := reflect.New(d.resourceType).Interface().(models.FieldResource)
	ds := d.Dialect().From(d.tableName).Select(resource).Where(where...).Order(goqu.I(d.idColName).Asc())
	err = d.ReadIn(ctx, txOrNil, resource, ds)
	if err != nil {
		return nil, err
	}
	return resource, nil
}

// FindRange returns up to limit resources matching filter in the order given by orderBy.
// A negative limit returns every match.
func (d *ResourceTable) FindRange(
	ctx context.Context,
	txOrNil *Tx,
	filter search.Filter,
	orderBy []search.SortField,
	limit int,
) ([]models.FieldResource, error) {
	where, err := d.Where(filter)
	if err != nil {
		return nil, err
	}
	order, err := d.OrderBy(orderBy)
	if err != nil {
		return nil, err
	}
	ds := d.Dialect().From(d.tableName).Select(reflect.New(d.resourceType).Interface()).Where(where...).Order(order...)
	if limit >= 0 {
		ds = ds.Limit(uint(limit))
	}
	// *[]*Resource
	slicePtr := reflect.New(reflect.SliceOf(reflect.PtrTo(d.resourceType)))
	err = d.db.Read(txOrNil, func(db Reader) error {
		query, args, err := ds.ToSQL()
		if err != nil {
			return fmt.Errorf("error generating query: %w", err)
		}
		d.LogQuery(query, args)
		err = db.ScanStructsContext(ctx, slicePtr.Interface(), query, args...)
		if err != nil {
			return MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slice := slicePtr.Elem()
	results := make([]models.FieldResource, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		results[i] = slice.Index(i).Interface().(models.FieldResource)
	}
	return results, nil
}

// Where converts filter into goqu where clauses. A nil filter produces no clauses.
func (d *ResourceTable) Where(filter search.Filter) ([]goqu.Expression, error) {
	if filter == nil {
		return nil, nil
	}
	expression, err := FilterExpression(filter, d.Column)
	if err != nil {
		return nil, err
	}
	return []goqu.Expression{expression}, nil
}

// OrderBy converts a sort order over search fields into goqu order clauses.
func (d *ResourceTable) OrderBy(orderBy []search.SortField) ([]exp.OrderedExpression, error) {
	order := make([]exp.OrderedExpression, 0, len(orderBy))
	for _, sortField := range orderBy {
		col, err := d.Column(sortField.Field)
		if err != nil {
			return nil, err
		}
		if sortField.Direction == search.Ascending {
			order = append(order, goqu.I(col).Asc())
		} else {
			order = append(order, goqu.I(col).Desc())
		}
	}
	return order, nil
}

// MakeStandardDBError converts driver specific errors for unique violations and missing rows
// into gerror errors. Other errors are returned unchanged.
func MakeStandardDBError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return gerror.NewErrAlreadyExists("Resource already exists").Wrap(sqliteErr)
		}
		if sqliteErr.Code == sqlite3.ErrNotFound {
			return gerror.NewErrNotFound("Resource not found").Wrap(sqliteErr)
		}
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		// 23505 -> unique_violation
		if pgErr.Code == "23505" {
			return gerror.NewErrAlreadyExists("Resource already exists").Wrap(pgErr)
		}
		// P0002 -> no_data_found
		if pgErr.Code == "P0002" {
			return gerror.NewErrNotFound("Resource not found").Wrap(pgErr)
		}
	}
	return err
}

// LogInsert logs an insert query via the configured logger.
func (d *ResourceTable) LogInsert(ds *goqu.InsertDataset) *goqu.InsertDataset {
	d.logQueryDS(ds)
	return ds
}

// LogUpdate logs an update query via the configured logger.
func (d *ResourceTable) LogUpdate(ds *goqu.UpdateDataset) *goqu.UpdateDataset {
	d.logQueryDS(ds)
	return ds
}

func (d *ResourceTable) logDelete(ds *goqu.DeleteDataset) *goqu.DeleteDataset {
	d.logQueryDS(ds)
	return ds
}

func (d *ResourceTable) logQueryDS(ds queryBuilder) {
	query, args, err := ds.ToSQL()
	if err != nil {
		d.Errorf("Error generating query: %v", err)
		return
	}
	d.LogQuery(query, args)
}

// LogQuery logs a SQL query and args to the configured logger.
func (d *ResourceTable) LogQuery(query string, args []interface{}) {
	d.WithFields(logger.Fields{"query": query, "args": args}).Trace()
}

// MakeETag hashes the resource's fields into a quoted etag. Fields tagged hash:"ignore" are excluded.
func MakeETag(resource models.Resource) (models.ETag, error) {
	hash, err := hashstructure.Hash(resource, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("error calculating resource hash: %w", err)
	}
	return models.ETag(fmt.Sprintf("\"%x\"", hash)), nil
}

// mustTableDescriptor generates a table descriptor for a resource model. Panics if the model does not match our conventions.
// See MustDBModel for a description of the rules.
func mustTableDescriptor(resource models.Resource, tableNameOverride string) tableDescriptor {
	columns := make(map[string]struct{})
	collectDBTags(reflect.TypeOf(resource), columns)
	if len(columns) == 0 {
		panic(fmt.Sprintf("expected %T to contain fields with \"db\" tags", resource))
	}

	// The prefix is whatever precedes the id column, e.g. subscriber for subscriber_id
	fieldPrefix := ""
	for col := range columns {
		if !strings.HasSuffix(col, idColSuffix) {
			continue
		}
		candidate := strings.TrimSuffix(col, idColSuffix)
		if fieldPrefix == "" || len(candidate) < len(fieldPrefix) {
			fieldPrefix = candidate
		}
	}
	if fieldPrefix == "" {
		panic("Unable to determine db field prefix")
	}
	for col := range columns {
		if !strings.HasPrefix(col, fieldPrefix+"_") {
			panic(fmt.Sprintf("All db fields must be prefixed with %q, found %q", fieldPrefix+"_", col))
		}
	}

	tableName := tableNameOverride
	if tableName == "" {
		tableName = fieldPrefix + "s"
	}

	expected := []string{makeIDColName(fieldPrefix)}
	_, isMutable := resource.(models.MutableResource)
	if isMutable {
		expected = append(expected, makeETagColName(fieldPrefix))
	}
	for _, col := range expected {
		if _, ok := columns[col]; !ok {
			panic(fmt.Sprintf("expected %q model to contain a field with a \"db\" tag matching %q", tableName, col))
		}
	}

	return tableDescriptor{
		tableName:   tableName,
		fieldPrefix: fieldPrefix,
		idColName:   makeIDColName(fieldPrefix),
		eTagColName: makeETagColName(fieldPrefix),
		columns:     columns,
		isMutable:   isMutable,
	}
}

// collectDBTags returns a map containing the db tag values of all fields in the flattened t.
func collectDBTags(t reflect.Type, fieldMap map[string]struct{}) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			collectDBTags(field.Type, fieldMap)
		} else {
			val, ok := field.Tag.Lookup(dbTagName)
			if ok {
				fieldMap[val] = struct{}{}
			}
		}
	}
}

const dbTagName = "db"

const idColSuffix = "_id"

func makeIDColName(fieldPrefix string) string {
	return fieldPrefix + idColSuffix
}

const eTagColSuffix = "_etag"

func makeETagColName(fieldPrefix string) string {
	return fieldPrefix + eTagColSuffix
}

func makeColName(fieldPrefix string, field string) string {
	return fieldPrefix + "_" + field
}

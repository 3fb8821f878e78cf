package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

/*
A general error to be used when no results are found. This is the error returned
by QueryOne, and can generally be used by other database helpers that fetch a single
result but find nothing.
*/
var NotFound = errors.New("not found")

// This interface should match both a direct pgx connection or a pgx transaction.
type ConnOrTx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)

	// Both raw database connections and transactions in pgx can begin/commit
	// transactions. For transactions this creates a savepoint, which behaves
	// like a nested transaction. See the documentation of pgx.Tx.Begin.
	Begin(ctx context.Context) (pgx.Tx, error)
}

var pgtypeMap = pgtype.NewMap()

/*
Performs a SQL query and returns a slice of all the result rows. You must
explicitly provide the type argument; this is how it knows what Go type to map
the results to.

Any SQL query may be performed, including INSERT and UPDATE with RETURNING. If
the query does not return a result set, call Exec on the connection instead.

This function always returns pointers to the values. For primitive types,
QueryOneScalar is usually more convenient.
*/
func Query[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]*T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	return it.ToSlice()
}

/*
Identical to Query, but returns only the first result row. If there are no
rows in the result set, returns NotFound.
*/
func QueryOne[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*T, error) {
	rows, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, hasRow := rows.Next()
	if !hasRow {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, NotFound
	}

	return result, nil
}

/*
Identical to QueryOne, but returns a concrete value instead of a pointer. If
there are no rows in the result set, returns NotFound.
*/
func QueryOneScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (T, error) {
	var zero T

	rows, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	result, hasRow := rows.Next()
	if !hasRow {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, NotFound
	}

	return *result, nil
}

/*
Identical to Query, but returns the Iterator instead of automatically
converting the results to a slice. The iterator must be closed after use.
*/
func QueryIterator[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*Iterator[T], error) {
	var destExample T
	destType := reflect.TypeOf(destExample)

	compiled := compileQuery(query, destType)

	rows, err := conn.Query(ctx, compiled.query, args...)
	if err != nil {
		return nil, err
	}

	it := &Iterator[T]{
		fieldPaths:       compiled.fieldPaths,
		rows:             rows,
		destType:         compiled.destType,
		destTypeIsScalar: typeIsQueryable(compiled.destType),
		closed:           make(chan struct{}, 1),
	}

	// Close the iterator if the context is canceled. Otherwise an abandoned
	// iterator holds its connection open after the request is gone.
	go func() {
		done := ctx.Done()
		if done == nil {
			return
		}
		select {
		case <-done:
			it.Close()
		case <-it.closed:
		}
	}()

	return it, nil
}

type compiledQuery struct {
	query      string
	destType   reflect.Type
	fieldPaths []fieldPath
}

var reColumnsPlaceholder = regexp.MustCompile(`\$columns({(.*?)})?`)

func compileQuery(query string, destType reflect.Type) compiledQuery {
	columnsMatch := reColumnsPlaceholder.FindStringSubmatch(query)
	if columnsMatch == nil {
		return compiledQuery{
			query:    query,
			destType: destType,
		}
	}

	// The presence of the $columns placeholder means that the destination type
	// must be a struct, and we will plonk that struct's fields into the query.
	if destType.Kind() != reflect.Struct {
		panic("$columns can only be used when querying into a struct")
	}

	var prefix []string
	if prefixText := columnsMatch[2]; prefixText != "" {
		prefix = []string{prefixText}
	}

	columnNames, fieldPaths := getColumnNamesAndPaths(destType, nil, prefix)

	columns := make([]string, 0, len(columnNames))
	for _, name := range columnNames {
		columns = append(columns, name.String())
	}

	return compiledQuery{
		query:      reColumnsPlaceholder.ReplaceAllString(query, strings.Join(columns, ", ")),
		destType:   destType,
		fieldPaths: fieldPaths,
	}
}

func getColumnNamesAndPaths(destType reflect.Type, pathSoFar []int, prefix []string) ([]columnName, []fieldPath) {
	var columnNames []columnName
	var fieldPaths []fieldPath

	if destType.Kind() == reflect.Ptr {
		destType = destType.Elem()
	}

	if destType.Kind() != reflect.Struct {
		panic(fmt.Errorf("can only get column names and paths from a struct, got type '%v' (at prefix '%v')", destType.Name(), prefix))
	}

	for i := 0; i < destType.NumField(); i++ {
		field := destType.Field(i)
		columnName := field.Tag.Get("db")
		if columnName == "" {
			continue
		}

		path := make([]int, len(pathSoFar), len(pathSoFar)+1)
		copy(path, pathSoFar)
		path = append(path, i)

		fieldColumnNames := make([]string, len(prefix), len(prefix)+1)
		copy(fieldColumnNames, prefix)
		fieldColumnNames = append(fieldColumnNames, columnName)

		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if typeIsQueryable(fieldType) {
			columnNames = append(columnNames, fieldColumnNames)
			fieldPaths = append(fieldPaths, path)
		} else if fieldType.Kind() == reflect.Struct {
			subCols, subPaths := getColumnNamesAndPaths(fieldType, path, fieldColumnNames)
			columnNames = append(columnNames, subCols...)
			fieldPaths = append(fieldPaths, subPaths...)
		} else {
			panic(fmt.Errorf("field '%s' in type %s has invalid type '%s'", field.Name, destType, field.Type))
		}
	}

	return columnNames, fieldPaths
}

/*
Values of these kinds are ok to query even if they are not directly understood
by pgtype. This is common for custom types like:

	type IndexOrder int
*/
var queryableKinds = []reflect.Kind{
	reflect.Int,
	reflect.String,
}

/*
Checks if we are able to handle a particular type in a database query. This
applies only to primitive types and not structs, since the database only returns
individual primitive types and it is our job to stitch them back together into
structs later.
*/
func typeIsQueryable(t reflect.Type) bool {
	// If pgtype recognizes the type, we don't need to dig in for more `db` tags.
	if _, ok := pgtypeMap.TypeForValue(reflect.New(t).Elem().Interface()); ok {
		return true
	} else if t == reflect.TypeOf(uuid.UUID{}) {
		return true
	}

	k := t.Kind()
	for _, qk := range queryableKinds {
		if k == qk {
			return true
		}
	}

	return false
}

// The pieces of a column name, e.g. ["article", "title"] for "article.title".
type columnName []string

func (n columnName) String() string {
	tableName := strings.Join(n[0:len(n)-1], "_")
	fullName := n[len(n)-1]
	if tableName != "" {
		fullName = tableName + "." + fullName
	}
	return fullName
}

// A path to a particular field in query's destination type. Each index in the slice
// corresponds to a field index for use with Field on a reflect.Type or reflect.Value.
type fieldPath []int

type Iterator[T any] struct {
	fieldPaths       []fieldPath
	rows             pgx.Rows
	destType         reflect.Type
	destTypeIsScalar bool
	closed           chan struct{}
}

func (it *Iterator[T]) Next() (*T, bool) {
	hasNext := it.rows.Next()
	if !hasNext {
		it.Close()
		return nil, false
	}

	result := reflect.New(it.destType)

	vals, err := it.rows.Values()
	if err != nil {
		panic(oops.New(err, "failed to read row values"))
	}

	if it.destTypeIsScalar {
		if len(vals) != 1 {
			panic(fmt.Errorf("tried to query a scalar value, but got %v values in the row", len(vals)))
		}
		if vals[0] != nil {
			setValueFromDB(result.Elem(), reflect.ValueOf(vals[0]))
		}
		return result.Interface().(*T), true
	}

	var currentField reflect.StructField
	var currentValue reflect.Value
	var currentIdx int

	// Better logging of panics in this confusing reflection process
	defer func() {
		if r := recover(); r != nil {
			if currentValue.IsValid() {
				logging.Error().
					Int("index", currentIdx).
					Str("field name", currentField.Name).
					Stringer("field type", currentField.Type).
					Interface("value", currentValue.Interface()).
					Stringer("value type", currentValue.Type()).
					Msg("panic in iterator")
			}

			if currentField.Name != "" {
				panic(fmt.Errorf("panic while processing field '%s': %v", currentField.Name, r))
			} else {
				panic(r)
			}
		}
	}()

	for i, val := range vals {
		currentIdx = i
		if val == nil {
			continue
		}

		var field reflect.Value
		field, currentField = followPathThroughStructs(result, it.fieldPaths[i])
		if field.Kind() == reflect.Ptr {
			field.Set(reflect.New(field.Type().Elem()))
			field = field.Elem()
		}

		valReflected := reflect.ValueOf(val)
		if valReflected.Kind() == reflect.Ptr {
			valReflected = valReflected.Elem()
		}
		currentValue = valReflected

		setValueFromDB(field, valReflected)

		currentField = reflect.StructField{}
		currentValue = reflect.Value{}
	}

	return result.Interface().(*T), true
}

// Postgres integer widths rarely match Go's, so ints and floats are converted
// by kind. Everything else is assigned directly.
func setValueFromDB(dest reflect.Value, value reflect.Value) {
	switch dest.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dest.SetInt(value.Int())
	case reflect.Float32, reflect.Float64:
		dest.SetFloat(value.Float())
	case reflect.String:
		dest.SetString(value.String())
	default:
		dest.Set(value)
	}
}

func (it *Iterator[T]) Err() error {
	return it.rows.Err()
}

func (it *Iterator[T]) Close() {
	it.rows.Close()
	select {
	case it.closed <- struct{}{}:
	default:
	}
}

/*
Pulls all the remaining values into a slice, and closes the iterator.
*/
func (it *Iterator[T]) ToSlice() ([]*T, error) {
	defer it.Close()
	var result []*T
	for {
		row, ok := it.Next()
		if !ok {
			if err := it.rows.Err(); err != nil {
				return nil, oops.New(err, "error while iterating through db results")
			}
			break
		}
		result = append(result, row)
	}
	return result, nil
}

func followPathThroughStructs(structPtrVal reflect.Value, path []int) (reflect.Value, reflect.StructField) {
	if len(path) < 1 {
		panic(oops.New(nil, "can't follow an empty path"))
	}

	if structPtrVal.Kind() != reflect.Ptr || structPtrVal.Elem().Kind() != reflect.Struct {
		panic(oops.New(nil, "structPtrVal must be a pointer to a struct; got value of type %s", structPtrVal.Type()))
	}

	// more informative panic recovery
	var field reflect.StructField
	defer func() {
		if r := recover(); r != nil {
			panic(oops.New(nil, "panic at field '%s': %v", field.Name, r))
		}
	}()

	val := structPtrVal
	for _, i := range path {
		if val.Kind() == reflect.Ptr && val.Type().Elem().Kind() == reflect.Struct {
			if val.IsNil() {
				val.Set(reflect.New(val.Type().Elem()))
			}
			val = val.Elem()
		}
		field = val.Type().Field(i)
		val = val.Field(i)
	}
	return val, field
}

// Reports whether err is a Postgres unique violation on the named constraint.
// An empty constraint name matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

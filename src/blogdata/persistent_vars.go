package blogdata

import (
	"context"
	"encoding/json"
	"errors"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/models"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
)

type PersistentVarName string

const (
	VarNameAdminVisualName PersistentVarName = "admin_visual_name"
)

// Shown publicly in place of the administrator's username.
type AdminVisualName struct {
	Name string `json:"name"`
}

const DefaultAdminVisualName = "Admin"

// Returns db.NotFound if the variable isn't in the db.
func FetchPersistentVar[T any](
	ctx context.Context,
	dbConn db.ConnOrTx,
	varName PersistentVarName,
) (*T, error) {
	persistentVar, err := db.QueryOne[models.PersistentVar](ctx, dbConn,
		`
		SELECT $columns
		FROM persistent_var
		WHERE name = $1
		`,
		varName,
	)
	if err != nil {
		return nil, err
	}

	var result T
	err = json.Unmarshal([]byte(persistentVar.Value), &result)
	if err != nil {
		return nil, oops.New(err, "failed to unmarshal persistent var %s", varName)
	}

	return &result, nil
}

func StorePersistentVar[T any](
	ctx context.Context,
	dbConn db.ConnOrTx,
	name PersistentVarName,
	value *T,
) error {
	jsonString, err := json.Marshal(value)
	if err != nil {
		return oops.New(err, "failed to marshal variable")
	}

	_, err = dbConn.Exec(ctx,
		`
		INSERT INTO persistent_var (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value
		`,
		name,
		string(jsonString),
	)
	if err != nil {
		return oops.New(err, "failed to store persistent var %s", name)
	}

	return nil
}

// Falls back to DefaultAdminVisualName if none has been set.
func FetchAdminVisualName(ctx context.Context, dbConn db.ConnOrTx) (string, error) {
	v, err := FetchPersistentVar[AdminVisualName](ctx, dbConn, VarNameAdminVisualName)
	if errors.Is(err, db.NotFound) {
		return DefaultAdminVisualName, nil
	} else if err != nil {
		return "", oops.New(err, "failed to fetch admin visual name")
	}
	return v.Name, nil
}

func SetAdminVisualName(ctx context.Context, dbConn db.ConnOrTx, name string) error {
	return StorePersistentVar(ctx, dbConn, VarNameAdminVisualName, &AdminVisualName{Name: name})
}

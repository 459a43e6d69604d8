package sqlite

import (
    "errors"

    dbpkg "linkhub-gateway/internal/database"
    derrors "linkhub-gateway/internal/domain/errors"
)

var ErrDBUnavailable = errors.New("database not available")

// mapNotFound translates the storage sentinel into the domain one.
func mapNotFound(err error, domain derrors.DomainError) error {
    if errors.Is(err, dbpkg.ErrNotFound) { return domain }
    return err
}

// handle returns the injected database or the process default.
func handle(db *dbpkg.Database) (*dbpkg.Database, error) {
    if db != nil { return db, nil }
    if d := dbpkg.GetDatabase(); d != nil { return d, nil }
    return nil, ErrDBUnavailable
}

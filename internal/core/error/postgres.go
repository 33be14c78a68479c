package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// WrapDB maps Postgres errors to AppError with appropriate status codes.
func WrapDB(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, DBNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, DBErrorMessage)
}

package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/status"
)

// Cause labels for failures that originate outside the service.
const (
	CauseTimeout  = "timeout"
	CauseCanceled = "canceled"
	CauseRedisNil = "redis_nil"
	CausePostgres = "postgres"
	CauseGRPC     = "grpc"
)

// ErrorDump flattens an error chain into loggable fields.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Details    any    `json:"details,omitempty"`
	Cause      string `json:"cause,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PG       *PGFields `json:"pg,omitempty"`
	GRPCCode string    `json:"grpc_code,omitempty"`
}

// PGFields are the server-side details of a Postgres error, whichever driver raised it.
type PGFields struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Fields returns the non-empty dump values keyed for structured logging.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	put := func(key string, value any, ok bool) {
		if ok {
			fields[key] = value
		}
	}
	put("error_code", d.Code, d.Code != "")
	put("error_cause", d.Cause, d.Cause != "")
	put("error_chain", d.Chain, len(d.Chain) > 0)
	put("error_details", d.Details, d.Details != nil)
	put("grpc_code", d.GRPCCode, d.GRPCCode != "")
	if d.PG != nil {
		fields["pg_code"] = d.PG.Code
		put("pg_constraint", d.PG.Constraint, d.PG.Constraint != "")
		put("pg_table", d.PG.Table, d.PG.Table != "")
		put("pg_detail", d.PG.Detail, d.PG.Detail != "")
		put("pg_message", d.PG.Message, d.PG.Message != "")
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Details = te.Details()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		d.Cause = CauseTimeout
	case errors.Is(err, context.Canceled):
		d.Cause = CauseCanceled
	case errors.Is(err, redis.Nil):
		d.Cause = CauseRedisNil
	}

	if pg := postgresFields(err); pg != nil {
		d.PG = pg
		if d.Cause == "" {
			d.Cause = CausePostgres
		}
	}
	// FromError unwraps, so a pubsub failure deep in the chain is still found.
	if st, ok := status.FromError(err); ok {
		d.GRPCCode = st.Code().String()
		if d.Cause == "" {
			d.Cause = CauseGRPC
		}
	}
	return d
}

func postgresFields(err error) *PGFields {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGFields{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGFields{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

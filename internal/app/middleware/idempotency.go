package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/domain/shared/apperr"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

	ErrIdempotencyKeyReused = apperr.New(apperr.ErrConflict, "idempotency key already used for a different request")
)

// Idempotency replays the stored outcome of a command key instead of running it again.
// Replayed failures keep their error kind. Keys are scoped by command name and acting user,
// and a replay only happens when the command payload matches the one that was stored.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := idempotencyKey(cmd, idCmd.IdempotencyKey())
			fp, err := fingerprint(cmd)
			if err != nil {
				return nil, err
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Fingerprint != fp {
					return nil, ErrIdempotencyKeyReused
				}
				if rec.Error != "" {
					return nil, replayError(rec)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:         key,
				Fingerprint: fp,
				OccurredAt:  time.Now().UTC(),
			}
			if err != nil {
				// Only business outcomes are final; infrastructure errors may be retried.
				if kind := apperr.Kind(err); kind != nil {
					record.Error = err.Error()
					record.ErrorKind = kind.Error()
					if saveErr := store.Save(ctx, record); saveErr != nil {
						return nil, errors.Join(err, saveErr)
					}
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func idempotencyKey(cmd commands.Command, clientKey string) string {
	var user string
	if m, ok := cmd.(ActorMessage); ok {
		user = string(m.ActingUser().UserID)
	}
	return cmd.Key() + ":" + user + ":" + clientKey
}

// fingerprint hashes the command without its actor and client key. Map keys are sorted on
// re-encoding, so field order does not matter.
func fingerprint(cmd commands.Command) (string, error) {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	raw, err := api.Marshal(cmd)
	if err != nil {
		return "", err
	}
	var fields map[string]jsoniter.RawMessage
	if err := api.Unmarshal(raw, &fields); err == nil {
		delete(fields, "Actor")
		delete(fields, "IdempotencyKeyV")
		if raw, err = api.Marshal(fields); err != nil {
			return "", err
		}
	}
	h := sha256.New()
	h.Write([]byte(cmd.Key()))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func replayError(rec IdempotencyRecord) error {
	for _, kind := range []error{apperr.ErrValidation, apperr.ErrConflict, apperr.ErrInvalidState, apperr.ErrForbidden, apperr.ErrNotFound} {
		if kind.Error() == rec.ErrorKind {
			return apperr.New(kind, rec.Error)
		}
	}
	return errors.New(rec.Error)
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}

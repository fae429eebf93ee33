package entity

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// Binder is implemented by entities that resolve their references, or
// derive stored fields, before insertion. Bind runs inside the create
// transaction.
type Binder interface {
	Bind(ctx context.Context, tx *gorm.DB) error
}

// Editor is implemented by entities that apply an update payload onto the
// stored record. Edit runs inside the update transaction on the stored row.
type Editor[T any] interface {
	Edit(ctx context.Context, tx *gorm.DB, from *T) error
}

// Unlinker is implemented by entities that must detach join rows or
// dependents before deletion. Unlink runs inside the delete transaction.
type Unlinker interface {
	Unlink(ctx context.Context, tx *gorm.DB) error
}

// Attacher is implemented by entities that own dependent rows written
// together with them. Attach runs inside the create or update transaction
// after the entity row itself is stored.
type Attacher interface {
	Attach(ctx context.Context, tx *gorm.DB) error
}

// Bearer is implemented by entities that are also identities.
type Bearer interface {
	Identity() identity.Identity
}

// Engine dispatches list, filter, range, eager-load and mutation requests
// for one entity type through the type's Descriptor.
type Engine[T any, PT interface {
	*T
	Entity
}] struct {
	db       *gorm.DB
	desc     *Descriptor
	cache    *identity.Cache
	validate *validator.Validate
	limit    int
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	cache    *identity.Cache
	validate *validator.Validate
	limit    int
}

// WithCache keeps cache in step with mutations of identity-bearing entities.
func WithCache(c *identity.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithValidator sets the struct validator used on write payloads.
func WithValidator(v *validator.Validate) Option {
	return func(o *options) { o.validate = v }
}

// WithLimit caps the page size of ListRange. Zero means no cap.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// New creates an engine for T over db.
func New[T any, PT interface {
	*T
	Entity
}](db *gorm.DB, opts ...Option) *Engine[T, PT] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validate == nil {
		o.validate = NewValidator()
	}
	return &Engine[T, PT]{
		db:       db,
		desc:     DescriptorOf[T](),
		cache:    o.cache,
		validate: o.validate,
		limit:    o.limit,
	}
}

// Descriptor returns the property map of T.
func (e *Engine[T, PT]) Descriptor() *Descriptor {
	return e.desc
}

// Name is the lower-camel type name used in messages.
func (e *Engine[T, PT]) Name() string {
	return e.desc.Name
}

// List returns every T ordered by id, eager-loading related when given.
func (e *Engine[T, PT]) List(ctx context.Context, related []string) ([]T, error) {
	q, err := e.query(ctx, related)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// ListWithRelated is List with a mandatory, non-empty relation list.
func (e *Engine[T, PT]) ListWithRelated(ctx context.Context, related []string) ([]T, error) {
	if len(related) == 0 {
		return nil, apperr.Validation("no relations named")
	}
	return e.List(ctx, related)
}

// ListRange returns take records after skipping skip, in id order.
func (e *Engine[T, PT]) ListRange(ctx context.Context, skip, take int, related []string) ([]T, error) {
	if take <= 0 || skip < 0 {
		return []T{}, nil
	}
	if e.limit > 0 && take > e.limit {
		take = e.limit
	}
	q, err := e.query(ctx, related)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := q.Offset(skip).Limit(take).Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// FilterEquals returns the records whose field has the textual form raw.
func (e *Engine[T, PT]) FilterEquals(ctx context.Context, field, raw string, related []string) ([]T, error) {
	f, err := e.desc.ResolveField(field)
	if err != nil {
		return nil, err
	}
	return e.filter(ctx, related, func(row *T) (bool, error) {
		return Equals(f, row, raw), nil
	})
}

// FilterRange returns the records whose numeric field lies in [lo, hi].
// A reversed range yields no records.
func (e *Engine[T, PT]) FilterRange(ctx context.Context, field, lo, hi string, related []string) ([]T, error) {
	f, err := e.desc.ResolveField(field)
	if err != nil {
		return nil, err
	}
	if !f.Numeric() {
		return nil, apperr.Validation("field %q of %s is not numeric", field, e.desc.Name)
	}
	low, err := ParseNumber(lo)
	if err != nil {
		return nil, err
	}
	high, err := ParseNumber(hi)
	if err != nil {
		return nil, err
	}
	if low > high {
		return []T{}, nil
	}
	return e.filter(ctx, related, func(row *T) (bool, error) {
		return InRange(f, row, low, high)
	})
}

// Get returns the record with id.
func (e *Engine[T, PT]) Get(ctx context.Context, id uint, related []string) (PT, error) {
	q, err := e.query(ctx, related)
	if err != nil {
		return nil, err
	}
	out := PT(new(T))
	if err := q.First(out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("%s %d not found", e.desc.Name, id)
		}
		return nil, translate(err)
	}
	return out, nil
}

// Create validates and inserts payload, which must not carry an id.
func (e *Engine[T, PT]) Create(ctx context.Context, payload PT) (PT, error) {
	if payload.GetID() != 0 {
		return nil, apperr.Validation("id must not be set when creating a %s", e.desc.Name)
	}
	if err := e.check(payload); err != nil {
		return nil, err
	}
	bearer, isBearer := any(payload).(Bearer)
	if isBearer {
		defer LockIdentities()()
		if e.cache != nil {
			if _, taken := e.cache.FindByEmail(bearer.Identity().Email); taken {
				return nil, apperr.Validation("Email is already registered")
			}
		}
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isBearer {
			if err := claimEmail(tx, bearer.Identity()); err != nil {
				return err
			}
		}
		if b, ok := any(payload).(Binder); ok {
			if err := b.Bind(ctx, tx); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(payload).Error; err != nil {
			return err
		}
		return attach(ctx, tx, payload)
	})
	if err != nil {
		return nil, translate(err)
	}

	if isBearer && e.cache != nil {
		if err := e.cache.Insert(bearer.Identity()); err != nil {
			// The row is committed; the cache is stale until the next reload.
			zerolog.Ctx(ctx).Warn().Err(err).Str("entity", e.desc.Name).Uint("id", payload.GetID()).
				Msg("identity cache out of step with store")
		}
	}
	return payload, nil
}

// Update applies payload to the record with id. A payload id, when present,
// must equal id.
func (e *Engine[T, PT]) Update(ctx context.Context, id uint, payload PT) (PT, error) {
	if pid := payload.GetID(); pid != 0 && pid != id {
		return nil, apperr.Validation("id %d in body does not match %d", pid, id)
	}
	if err := e.check(payload); err != nil {
		return nil, err
	}
	existing := PT(new(T))
	bearer, isBearer := any(payload).(Bearer)
	if isBearer {
		defer LockIdentities()()
		if e.cache != nil {
			next := bearer.Identity()
			if held, taken := e.cache.FindByEmail(next.Email); taken && (held.Role != next.Role || held.ID != id) {
				return nil, apperr.Validation("Email is already registered")
			}
		}
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("%s %d not found", e.desc.Name, id)
			}
			return err
		}
		if isBearer {
			next := bearer.Identity()
			next.ID = id
			if err := claimEmail(tx, next); err != nil {
				return err
			}
		}
		if ed, ok := any(existing).(Editor[T]); ok {
			if err := ed.Edit(ctx, tx, (*T)(payload)); err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Save(existing).Error; err != nil {
				return err
			}
			return attach(ctx, tx, existing)
		}
		if err := tx.Model(existing).Select("*").Omit(clause.Associations, "id").Updates(payload).Error; err != nil {
			return err
		}
		return tx.First(existing, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	if b, ok := any(existing).(Bearer); ok && e.cache != nil {
		if err := e.cache.Replace(b.Identity()); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("entity", e.desc.Name).Uint("id", id).
				Msg("identity cache out of step with store")
		}
	}
	return existing, nil
}

// Delete removes the record with id.
func (e *Engine[T, PT]) Delete(ctx context.Context, id uint) error {
	existing := PT(new(T))
	if _, ok := any(existing).(Bearer); ok {
		defer LockIdentities()()
	}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("%s %d not found", e.desc.Name, id)
			}
			return err
		}
		if u, ok := any(existing).(Unlinker); ok {
			if err := u.Unlink(ctx, tx); err != nil {
				return err
			}
		}
		return tx.Delete(existing).Error
	})
	if err != nil {
		return translate(err)
	}

	if b, ok := any(existing).(Bearer); ok && e.cache != nil {
		id := b.Identity()
		e.cache.Remove(id.Role, id.ID)
	}
	return nil
}

func (e *Engine[T, PT]) query(ctx context.Context, related []string) (*gorm.DB, error) {
	q := e.db.WithContext(ctx).Order("id")
	if len(related) == 0 {
		return q, nil
	}
	paths, err := e.desc.ResolvePaths(related)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		q = q.Preload(p, orderByID)
	}
	return q, nil
}

// filterBatch bounds the ids bound into one eager-loading query, well under
// the postgres and sqlite parameter limits.
var filterBatch = 1000

func (e *Engine[T, PT]) filter(ctx context.Context, related []string, keep func(*T) (bool, error)) ([]T, error) {
	// Resolve relations before scanning so a bad name fails fast.
	if len(related) > 0 {
		if _, err := e.desc.ResolvePaths(related); err != nil {
			return nil, err
		}
	}
	rows, err := e.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	matched := make([]T, 0)
	ids := make([]uint, 0)
	for i := range rows {
		ok, err := keep(&rows[i])
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rows[i])
			ids = append(ids, PT(&rows[i]).GetID())
		}
	}
	if len(related) == 0 || len(matched) == 0 {
		return matched, nil
	}

	out := make([]T, 0, len(ids))
	for start := 0; start < len(ids); start += filterBatch {
		end := min(start+filterBatch, len(ids))
		q, err := e.query(ctx, related)
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := q.Where("id IN ?", ids[start:end]).Find(&batch).Error; err != nil {
			return nil, translate(err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (e *Engine[T, PT]) check(payload PT) error {
	return Check(e.validate, e.desc.Name, payload)
}

// Check validates payload, reporting failures as a Validation error that
// names each failing field by its JSON name.
func Check(v *validator.Validate, name string, payload interface{}) error {
	if err := v.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return apperr.Validation("invalid %s: %s", name, strings.Join(msgs, ", "))
		}
		return apperr.Validation("invalid %s: %v", name, err)
	}
	return nil
}

func attach(ctx context.Context, tx *gorm.DB, e interface{}) error {
	if a, ok := e.(Attacher); ok {
		return a.Attach(ctx, tx)
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// NewValidator returns the validator used for entity payloads.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, hidden := jsonTag(sf)
		if hidden {
			return sf.Name
		}
		return name
	})
	return v
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != 0:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Validation("a record with the same unique value already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Validation("record references a missing record or is still referenced")
	}
	return apperr.Store(err)
}

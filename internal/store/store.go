// Package store persists listings, user search preferences and per user listing actions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/search"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	errQueueFull = errors.New("queue is full")
)

// Action is what a user did with a listing.
type Action string

const (
	ActionStar Action = "star"
	ActionHide Action = "hide"
)

func (a Action) Valid() bool {
	return a == ActionStar || a == ActionHide
}

// Store is the database access layer, it is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver Driver
	time   chrono.API
}

func New(db *sql.DB, driver Driver, time chrono.API) *Store {
	return &Store{db: db, driver: driver, time: time}
}

// Open opens the configured database and applies the schema.
func Open(ctx context.Context, cfg Config, time chrono.API) (*Store, error) {
	db, driver, err := cfg.OpenDB()
	if err != nil {
		return nil, err
	}
	err = Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return New(db, driver, time), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) now() string {
	return s.time.Now().UTC().Format(timestampLayout)
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toNullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func parseTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullInt(i sql.NullInt64) *int64 {
	if !i.Valid {
		return nil
	}
	return &i.Int64
}

const upsertListing = `insert into listings (
    id, url, source, title, price_text, price_cents, image_url, external_id,
    item_condition, listing_date, location, seller_name, first_seen, last_seen
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (url) do update set
    source = excluded.source,
    title = excluded.title,
    price_text = coalesce(excluded.price_text, listings.price_text),
    price_cents = coalesce(excluded.price_cents, listings.price_cents),
    image_url = coalesce(excluded.image_url, listings.image_url),
    external_id = coalesce(excluded.external_id, listings.external_id),
    item_condition = coalesce(excluded.item_condition, listings.item_condition),
    listing_date = coalesce(excluded.listing_date, listings.listing_date),
    location = coalesce(excluded.location, listings.location),
    seller_name = coalesce(excluded.seller_name, listings.seller_name),
    last_seen = excluded.last_seen`

// UpsertListings stores listings keyed by their link in a single transaction.
// Storing the same link again keeps one row and overwrites it with every
// non-null field of the newer listing.
func (s *Store) UpsertListings(ctx context.Context, listings []search.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertListing))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.now()
	for _, l := range listings {
		if !l.Valid() {
			continue
		}
		_, err = stmt.ExecContext(
			ctx,
			uuid.NewString(),
			l.Link,
			string(l.Source),
			l.Title,
			toNullString(l.Price),
			toNullInt(l.PriceCents),
			toNullString(l.Image),
			toNullString(l.ExternalID),
			toNullString(l.Condition),
			formatTime(l.ListingDate),
			toNullString(l.Location),
			toNullString(l.SellerName),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert '%s': %w", l.Link, err)
		}
	}

	return tx.Commit()
}

const listingColumns = `l.title, l.price_text, l.price_cents, l.url, l.image_url, l.source,
    l.external_id, l.item_condition, l.listing_date, l.location, l.seller_name`

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner, extra ...any) (search.Listing, error) {
	var (
		listing     search.Listing
		source      string
		price       sql.NullString
		priceCents  sql.NullInt64
		image       sql.NullString
		externalId  sql.NullString
		condition   sql.NullString
		listingDate sql.NullString
		location    sql.NullString
		sellerName  sql.NullString
	)
	dest := []any{
		&listing.Title, &price, &priceCents, &listing.Link, &image, &source,
		&externalId, &condition, &listingDate, &location, &sellerName,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return search.Listing{}, err
	}

	listing.Source = search.SourceName(source)
	listing.Price = nullString(price)
	listing.PriceCents = nullInt(priceCents)
	listing.Image = nullString(image)
	listing.ExternalID = nullString(externalId)
	listing.Condition = nullString(condition)
	listing.ListingDate = parseTime(listingDate)
	listing.Location = nullString(location)
	listing.SellerName = nullString(sellerName)
	return listing, nil
}

// GetListing looks a stored listing up by its link.
func (s *Store) GetListing(ctx context.Context, link string) (search.Listing, error) {
	row := s.db.QueryRowContext(
		ctx,
		s.rebind(`select `+listingColumns+` from listings l where l.url = ?`),
		link,
	)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return search.Listing{}, ErrNotFound
	}
	return listing, err
}

// CountListings returns how many listings are stored.
func (s *Store) CountListings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `select count(*) from listings`).Scan(&count)
	return count, err
}

// ForgetSeller clears the seller name from every listing sold by username and
// returns how many listings were changed.
func (s *Store) ForgetSeller(ctx context.Context, username string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`update listings set seller_name = null where seller_name = ?`),
		username,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetPreferences returns the raw stored preferences of a user, ErrNotFound when the
// user has no profile. A profile without preferences yields nil.
func (s *Store) GetPreferences(ctx context.Context, userId string) (json.RawMessage, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`select search_preferences from profiles where user_id = ?`),
		userId,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !raw.Valid {
		return nil, nil
	}
	return json.RawMessage(raw.String), nil
}

// SetPreferences stores raw verbatim, creating the profile if needed.
func (s *Store) SetPreferences(ctx context.Context, userId string, raw json.RawMessage) error {
	if !json.Valid(raw) {
		return fmt.Errorf("preferences are not valid json")
	}
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`insert into profiles (user_id, search_preferences, updated_at) values (?, ?, ?)
on conflict (user_id) do update set
    search_preferences = excluded.search_preferences,
    updated_at = excluded.updated_at`),
		userId,
		string(raw),
		s.now(),
	)
	return err
}

// SetAction records an action on a stored listing, replacing any previous action
// the user took on it. ErrNotFound means the listing was never stored.
func (s *Store) SetAction(ctx context.Context, userId, link string, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("unknown action '%s'", action)
	}

	var listingId string
	err := s.db.QueryRowContext(
		ctx,
		s.rebind(`select id from listings where url = ?`),
		link,
	).Scan(&listingId)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		s.rebind(`insert into user_listing_actions (id, user_id, listing_id, action, created_at)
values (?, ?, ?, ?, ?)
on conflict (user_id, listing_id) do update set
    action = excluded.action,
    created_at = excluded.created_at`),
		uuid.NewString(),
		userId,
		listingId,
		string(action),
		s.now(),
	)
	return err
}

// ClearAction removes whatever action the user took on a listing.
func (s *Store) ClearAction(ctx context.Context, userId, link string) error {
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`delete from user_listing_actions
where user_id = ? and listing_id in (select id from listings where url = ?)`),
		userId,
		link,
	)
	return err
}

// ActionListing is a stored listing together with the action taken on it.
type ActionListing struct {
	search.Listing
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"action_at"`
}

// ListActions returns the user's listings with the given action, most recent first.
func (s *Store) ListActions(ctx context.Context, userId string, action Action) ([]ActionListing, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`select `+listingColumns+`, a.action, a.created_at
from user_listing_actions a
join listings l on l.id = a.listing_id
where a.user_id = ? and a.action = ?
order by a.created_at desc`),
		userId,
		string(action),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionListing
	for rows.Next() {
		var (
			kind      string
			createdAt sql.NullString
		)
		listing, err := scanListing(rows, &kind, &createdAt)
		if err != nil {
			return nil, err
		}
		entry := ActionListing{Listing: listing, Action: Action(kind)}
		if created := parseTime(createdAt); created != nil {
			entry.CreatedAt = *created
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

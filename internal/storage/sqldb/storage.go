package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage"
)

// Storage is a relational implementation of the storage interface
type Storage struct {
	db *sqlx.DB
}

// Open connects to the configured database and optionally migrates it
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_journal_mode=WAL"
		}
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Migrate {
		if err := Migrate(db, cfg.Driver, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return New(db), nil
}

// New wraps an existing connection pool
func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// roomRow mirrors a three_stones_rooms row
type roomRow struct {
	Code            string         `db:"room_code"`
	Name            string         `db:"room_name"`
	PasswordHash    sql.NullString `db:"password_hash"`
	CreatorUserID   sql.NullInt64  `db:"creator_user_id"`
	CreatorSocketID sql.NullString `db:"creator_socket_id"`
	OrangePlayerID  sql.NullInt64  `db:"orange_player_id"`
	OrangeSocketID  sql.NullString `db:"orange_socket_id"`
	BluePlayerID    sql.NullInt64  `db:"blue_player_id"`
	BlueSocketID    sql.NullString `db:"blue_socket_id"`
	GameState       sql.NullString `db:"game_state"`
	Started         bool           `db:"started"`
	StartedAt       sql.NullTime   `db:"started_at"`
	GameOver        bool           `db:"game_over"`
	CreatedAt       time.Time      `db:"created_at"`
}

const roomColumns = `room_code, room_name, password_hash, creator_user_id, creator_socket_id,
	orange_player_id, orange_socket_id, blue_player_id, blue_socket_id,
	game_state, started, started_at, game_over, created_at`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(id model.UserID) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func encodeState(state *model.GameState) (sql.NullString, error) {
	if state == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func toRow(rec *model.RoomRecord) (*roomRow, error) {
	state, err := encodeState(rec.Game)
	if err != nil {
		return nil, err
	}
	orange := rec.Slots[model.ColorOrange]
	blue := rec.Slots[model.ColorBlue]
	return &roomRow{
		Code:            string(rec.Code),
		Name:            rec.Name,
		PasswordHash:    nullString(rec.PasswordDigest),
		CreatorUserID:   nullInt(rec.CreatorUserID),
		CreatorSocketID: nullString(string(rec.CreatorConn)),
		OrangePlayerID:  nullInt(orange.UserID),
		OrangeSocketID:  nullString(string(orange.Conn)),
		BluePlayerID:    nullInt(blue.UserID),
		BlueSocketID:    nullString(string(blue.Conn)),
		GameState:       state,
		Started:         rec.Started,
		StartedAt:       nullTime(rec.StartedAt),
		GameOver:        rec.GameOver,
		CreatedAt:       rec.CreatedAt.UTC(),
	}, nil
}

func (r *roomRow) record() (*model.RoomRecord, error) {
	rec := &model.RoomRecord{
		Code:           model.RoomCode(r.Code),
		Name:           r.Name,
		PasswordDigest: r.PasswordHash.String,
		CreatorUserID:  model.UserID(r.CreatorUserID.Int64),
		CreatorConn:    model.ConnID(r.CreatorSocketID.String),
		Slots:          make(map[model.Color]model.SlotRecord, model.MaxPlayers),
		Started:        r.Started,
		GameOver:       r.GameOver,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.StartedAt.Valid {
		rec.StartedAt = r.StartedAt.Time.UTC()
	}
	if r.OrangePlayerID.Valid || r.OrangeSocketID.Valid {
		rec.Slots[model.ColorOrange] = model.SlotRecord{
			UserID: model.UserID(r.OrangePlayerID.Int64),
			Conn:   model.ConnID(r.OrangeSocketID.String),
		}
	}
	if r.BluePlayerID.Valid || r.BlueSocketID.Valid {
		rec.Slots[model.ColorBlue] = model.SlotRecord{
			UserID: model.UserID(r.BluePlayerID.Int64),
			Conn:   model.ConnID(r.BlueSocketID.String),
		}
	}
	if r.GameState.Valid && r.GameState.String != "" {
		var state model.GameState
		if err := json.Unmarshal([]byte(r.GameState.String), &state); err != nil {
			return nil, fmt.Errorf("decode game state for %s: %w", r.Code, err)
		}
		rec.Game = &state
	}
	return rec, nil
}

// Room writes

const upsertRoomQuery = `INSERT INTO three_stones_rooms (` + roomColumns + `)
VALUES (:room_code, :room_name, :password_hash, :creator_user_id, :creator_socket_id,
	:orange_player_id, :orange_socket_id, :blue_player_id, :blue_socket_id,
	:game_state, :started, :started_at, :game_over, :created_at)
ON CONFLICT (room_code) DO UPDATE SET
	room_name = excluded.room_name,
	password_hash = excluded.password_hash,
	creator_user_id = excluded.creator_user_id,
	creator_socket_id = excluded.creator_socket_id,
	orange_player_id = excluded.orange_player_id,
	orange_socket_id = excluded.orange_socket_id,
	blue_player_id = excluded.blue_player_id,
	blue_socket_id = excluded.blue_socket_id,
	game_state = excluded.game_state,
	started = excluded.started,
	started_at = excluded.started_at,
	game_over = excluded.game_over`

func (s *Storage) UpsertRoom(ctx context.Context, rec *model.RoomRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, upsertRoomQuery, row)
	return err
}

func (s *Storage) UpdateSlot(ctx context.Context, code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID) error {
	var query string
	switch color {
	case model.ColorOrange:
		query = `UPDATE three_stones_rooms SET orange_player_id = ?, orange_socket_id = ? WHERE room_code = ?`
	case model.ColorBlue:
		query = `UPDATE three_stones_rooms SET blue_player_id = ?, blue_socket_id = ? WHERE room_code = ?`
	default:
		return fmt.Errorf("unknown color %q", color)
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), nullInt(userID), nullString(string(conn)), string(code))
	return err
}

func (s *Storage) MarkStarted(ctx context.Context, code model.RoomCode, startedAt time.Time) error {
	query := s.db.Rebind(`UPDATE three_stones_rooms SET started = ?, started_at = ? WHERE room_code = ?`)
	_, err := s.db.ExecContext(ctx, query, true, nullTime(startedAt), string(code))
	return err
}

func (s *Storage) SaveGameState(ctx context.Context, code model.RoomCode, state *model.GameState) error {
	encoded, err := encodeState(state)
	if err != nil {
		return err
	}
	gameOver := state != nil && state.GameOver
	query := s.db.Rebind(`UPDATE three_stones_rooms SET game_state = ?, game_over = ? WHERE room_code = ?`)
	_, err = s.db.ExecContext(ctx, query, encoded, gameOver, string(code))
	return err
}

func (s *Storage) ResetGame(ctx context.Context, code model.RoomCode) error {
	query := s.db.Rebind(`UPDATE three_stones_rooms
		SET started = ?, started_at = NULL, game_state = NULL, game_over = ?
		WHERE room_code = ?`)
	_, err := s.db.ExecContext(ctx, query, false, false, string(code))
	return err
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	query := s.db.Rebind(`DELETE FROM three_stones_rooms WHERE room_code = ?`)
	_, err := s.db.ExecContext(ctx, query, string(code))
	return err
}

// Room reads

func (s *Storage) LoadRoom(ctx context.Context, code model.RoomCode) (*model.RoomRecord, error) {
	var row roomRow
	query := s.db.Rebind(`SELECT ` + roomColumns + ` FROM three_stones_rooms WHERE room_code = ?`)
	if err := s.db.GetContext(ctx, &row, query, string(code)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return row.record()
}

func (s *Storage) LoadActiveRooms(ctx context.Context, createdAfter time.Time) ([]*model.RoomRecord, error) {
	var rows []roomRow
	query := s.db.Rebind(`SELECT ` + roomColumns + ` FROM three_stones_rooms
		WHERE game_over = ? AND created_at > ?
		ORDER BY created_at DESC, room_code ASC`)
	if err := s.db.SelectContext(ctx, &rows, query, false, createdAfter.UTC()); err != nil {
		return nil, err
	}

	out := make([]*model.RoomRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	var n int
	query := s.db.Rebind(`SELECT COUNT(1) FROM three_stones_rooms WHERE room_code = ?`)
	if err := s.db.GetContext(ctx, &n, query, string(code)); err != nil {
		return false, err
	}
	return n > 0, nil
}

// User operations

// AddUser registers a user. Used to seed accounts in tests and local runs.
func (s *Storage) AddUser(ctx context.Context, user *model.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := s.db.Rebind(`INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, int64(user.ID), user.Username, createdAt.UTC())
	return err
}

func (s *Storage) LookupUserID(ctx context.Context, username string) (model.UserID, error) {
	var id int64
	query := s.db.Rebind(`SELECT id FROM users WHERE username = ?`)
	if err := s.db.GetContext(ctx, &id, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrUserNotFound
		}
		return 0, err
	}
	return model.UserID(id), nil
}

func (s *Storage) LookupUsername(ctx context.Context, id model.UserID) (string, error) {
	var name string
	query := s.db.Rebind(`SELECT username FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &name, query, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrUserNotFound
		}
		return "", err
	}
	return name, nil
}

package store

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/learnloop/video-backend/internal/config"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/ydb-platform/ydb-go-sdk/v3"
	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result/named"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/types"
	yc "github.com/ydb-platform/ydb-go-yc"
)

// YDBClient implements Database on top of YDB.
type YDBClient struct {
	driver       *ydb.Driver
	databasePath string
}

// NewYDBClient connects to YDB and optionally creates the tables.
func NewYDBClient(ctx context.Context, cfg *config.Config) (*YDBClient, error) {
	endpoint := cfg.YDBEndpoint
	database := cfg.YDBDatabasePath

	if endpoint == "" || database == "" {
		return nil, fmt.Errorf("YDB credentials not provided. Please set VB_YDB_ENDPOINT and VB_YDB_DATABASE_PATH environment variables")
	}

	driver, err := ydb.Open(ctx, endpoint,
		ydb.WithDatabase(database),
		yc.WithMetadataCredentials(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to YDB: %w", err)
	}

	log.Println("Successfully connected to YDB")

	client := &YDBClient{
		driver:       driver,
		databasePath: database,
	}

	if cfg.YDBAutoCreateTables > 0 {
		log.Println("VB_YDB_AUTO_CREATE_TABLES is enabled, checking and creating tables...")
		if err := client.createTables(ctx); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return client, nil
}

// Close closes the database connection.
func (c *YDBClient) Close() error {
	if c.driver != nil {
		return c.driver.Close(context.Background())
	}
	return nil
}

// Initialize is part of the Database interface; tables are created in
// createTables during construction.
func (c *YDBClient) Initialize(ctx context.Context) error {
	return nil
}

func (c *YDBClient) tableExists(ctx context.Context, name string) (bool, error) {
	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, err := session.DescribeTable(ctx, path.Join(c.databasePath, name))
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "SCHEME_ERROR") || strings.Contains(err.Error(), "doesn't exist") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *YDBClient) executeSchemeQuery(ctx context.Context, query string) error {
	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		return session.ExecuteSchemeQuery(ctx, query)
	})
}

func (c *YDBClient) createTables(ctx context.Context) error {
	tables := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE users (
				user_id Text NOT NULL,
				email Text,
				full_name Text,
				is_premium Bool,
				role Text,
				max_sessions Int32,
				created_at Timestamp,
				PRIMARY KEY (user_id)
			)
		`},
		{"videos", `
			CREATE TABLE videos (
				video_id Text NOT NULL,
				title Text,
				description Text,
				category Text,
				backend_locator Text,
				thumbnail_url Text,
				is_premium Bool,
				processing_status Text,
				duration_seconds Int32,
				view_count Int64,
				uploaded_at Timestamp,
				PRIMARY KEY (video_id)
			)
		`},
		{"sessions", `
			CREATE TABLE sessions (
				session_id Text NOT NULL,
				user_id Text NOT NULL,
				video_id Text,
				device_info Text,
				is_active Bool,
				started_at Timestamp,
				last_active_at Timestamp,
				PRIMARY KEY (session_id),
				INDEX user_idx GLOBAL ON (user_id),
				INDEX active_idx GLOBAL ON (is_active, last_active_at)
			)
		`},
		{"video_access", `
			CREATE TABLE video_access (
				access_id Text NOT NULL,
				user_id Text NOT NULL,
				video_id Text NOT NULL,
				ts Timestamp,
				ip_address Text,
				user_agent Text,
				PRIMARY KEY (access_id),
				INDEX user_idx GLOBAL ON (user_id),
				INDEX video_idx GLOBAL ON (video_id)
			)
		`},
		{"video_uploads", `
			CREATE TABLE video_uploads (
				upload_id Text NOT NULL,
				backend_locator Text,
				storage_path Text,
				status Text,
				created_at Timestamp,
				PRIMARY KEY (upload_id),
				INDEX created_idx GLOBAL ON (created_at)
			)
		`},
		{"watch_history", `
			CREATE TABLE watch_history (
				user_id Text NOT NULL,
				video_id Text NOT NULL,
				position Int64,
				updated_at Timestamp,
				PRIMARY KEY (user_id, video_id)
			)
		`},
		{"suspicious_activity", `
			CREATE TABLE suspicious_activity (
				activity_id Text NOT NULL,
				user_id Text,
				video_id Text,
				activity_type Text,
				position_delta Double,
				wall_clock_delta Double,
				ratio Double,
				ts Timestamp,
				PRIMARY KEY (activity_id),
				INDEX user_idx GLOBAL ON (user_id)
			)
		`},
	}

	for _, t := range tables {
		log.Printf("Creating table: %s", t.name)
		exists, err := c.tableExists(ctx, t.name)
		if err != nil {
			return fmt.Errorf("failed to check %s table existence: %w", t.name, err)
		}
		if exists {
			log.Printf("Table %s already exists, skipping creation", t.name)
			continue
		}
		if err := c.executeSchemeQuery(ctx, t.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		// Avoid tripping the schema-operations rate limit.
		time.Sleep(500 * time.Millisecond)
	}

	return nil
}

func optText(name string, v *string) table.ParameterOption {
	if v == nil {
		return table.ValueParam(name, types.NullValue(types.TypeText))
	}
	return table.ValueParam(name, types.OptionalValue(types.TextValue(*v)))
}

func optInt32(name string, v *int32) table.ParameterOption {
	if v == nil {
		return table.ValueParam(name, types.NullValue(types.TypeInt32))
	}
	return table.ValueParam(name, types.OptionalValue(types.Int32Value(*v)))
}

// GetUser reads one user account.
func (c *YDBClient) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		DECLARE $user_id AS Text;
		SELECT user_id, email, full_name, is_premium, role, max_sessions, created_at
		FROM users WHERE user_id = $user_id
	`

	var u User
	var found bool
	var isPremium *bool
	var role *string
	var createdAt *time.Time

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$user_id", types.TextValue(userID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			found = true
			err := res.ScanNamed(
				named.Required("user_id", &u.UserID),
				named.Optional("email", &u.Email),
				named.Optional("full_name", &u.FullName),
				named.Optional("is_premium", &isPremium),
				named.Optional("role", &role),
				named.Optional("max_sessions", &u.MaxSessions),
				named.Optional("created_at", &createdAt),
			)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, app_errors.New(app_errors.CodeNotFound, "user not found")
	}

	if isPremium != nil {
		u.IsPremium = *isPremium
	}
	if role != nil {
		u.Role = *role
	}
	if createdAt != nil {
		u.CreatedAt = *createdAt
	}
	return &u, nil
}

// CreateVideo inserts one content item.
func (c *YDBClient) CreateVideo(ctx context.Context, video *Video) error {
	query := `
		DECLARE $video_id AS Text;
		DECLARE $title AS Text;
		DECLARE $description AS Optional<Text>;
		DECLARE $category AS Optional<Text>;
		DECLARE $backend_locator AS Optional<Text>;
		DECLARE $thumbnail_url AS Optional<Text>;
		DECLARE $is_premium AS Bool;
		DECLARE $processing_status AS Text;
		DECLARE $duration_seconds AS Optional<Int32>;
		DECLARE $view_count AS Int64;
		DECLARE $uploaded_at AS Timestamp;

		REPLACE INTO videos (
			video_id, title, description, category, backend_locator, thumbnail_url,
			is_premium, processing_status, duration_seconds, view_count, uploaded_at
		) VALUES ($video_id, $title, $description, $category, $backend_locator, $thumbnail_url, $is_premium, $processing_status, $duration_seconds, $view_count, $uploaded_at)
	`

	uploadedAt := video.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$video_id", types.TextValue(video.VideoID)),
				table.ValueParam("$title", types.TextValue(video.Title)),
				optText("$description", video.Description),
				optText("$category", video.Category),
				optText("$backend_locator", video.BackendLocator),
				optText("$thumbnail_url", video.ThumbnailURL),
				table.ValueParam("$is_premium", types.BoolValue(video.IsPremium)),
				table.ValueParam("$processing_status", types.TextValue(video.ProcessingStatus)),
				optInt32("$duration_seconds", video.DurationSeconds),
				table.ValueParam("$view_count", types.Int64Value(video.ViewCount)),
				table.ValueParam("$uploaded_at", types.TimestampValueFromTime(uploadedAt)),
			),
		)
		return err
	})
}

// GetVideo reads one content item by id.
func (c *YDBClient) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	query := `
		DECLARE $video_id AS Text;
		SELECT video_id, title, description, category, backend_locator, thumbnail_url,
		       is_premium, processing_status, duration_seconds, view_count, uploaded_at
		FROM videos WHERE video_id = $video_id
	`

	var v Video
	var found bool

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$video_id", types.TextValue(videoID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			found = true
			if err := scanVideo(res.ScanNamed, &v); err != nil {
				return err
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, app_errors.New(app_errors.CodeNotFound, "video not found")
	}

	return &v, nil
}

type scanNamedFunc func(...named.Value) error

func scanVideo(scan scanNamedFunc, v *Video) error {
	var title *string
	var isPremium *bool
	var status *string
	var viewCount *int64
	var uploadedAt *time.Time

	err := scan(
		named.Required("video_id", &v.VideoID),
		named.Optional("title", &title),
		named.Optional("description", &v.Description),
		named.Optional("category", &v.Category),
		named.Optional("backend_locator", &v.BackendLocator),
		named.Optional("thumbnail_url", &v.ThumbnailURL),
		named.Optional("is_premium", &isPremium),
		named.Optional("processing_status", &status),
		named.Optional("duration_seconds", &v.DurationSeconds),
		named.Optional("view_count", &viewCount),
		named.Optional("uploaded_at", &uploadedAt),
	)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if title != nil {
		v.Title = *title
	}
	if isPremium != nil {
		v.IsPremium = *isPremium
	}
	if status != nil {
		v.ProcessingStatus = *status
	}
	if viewCount != nil {
		v.ViewCount = *viewCount
	}
	if uploadedAt != nil {
		v.UploadedAt = *uploadedAt
	}
	return nil
}

// ListVideos pages through the catalog, newest first.
func (c *YDBClient) ListVideos(ctx context.Context, limit, offset int) ([]*Video, error) {
	query := `
		DECLARE $limit AS Uint64;
		DECLARE $offset AS Uint64;
		SELECT video_id, title, description, category, backend_locator, thumbnail_url,
		       is_premium, processing_status, duration_seconds, view_count, uploaded_at
		FROM videos
		ORDER BY uploaded_at DESC
		LIMIT $limit OFFSET $offset
	`

	var videos []*Video

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$limit", types.Uint64Value(uint64(limit))),
				table.ValueParam("$offset", types.Uint64Value(uint64(offset))),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var v Video
				if err := scanVideo(res.ScanNamed, &v); err != nil {
					return err
				}
				videos = append(videos, &v)
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateVideoStatus writes the processing status (and duration, when known)
// of one content item.
func (c *YDBClient) UpdateVideoStatus(ctx context.Context, videoID, status string, durationSeconds *int32) error {
	query := `
		DECLARE $video_id AS Text;
		DECLARE $processing_status AS Text;
		DECLARE $duration_seconds AS Optional<Int32>;

		UPDATE videos
		SET processing_status = $processing_status,
		    duration_seconds = COALESCE($duration_seconds, duration_seconds)
		WHERE video_id = $video_id
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$video_id", types.TextValue(videoID)),
				table.ValueParam("$processing_status", types.TextValue(status)),
				optInt32("$duration_seconds", durationSeconds),
			),
		)
		return err
	})
}

// IncrementViewCount bumps the denormalized view counter.
func (c *YDBClient) IncrementViewCount(ctx context.Context, videoID string) error {
	query := `
		DECLARE $video_id AS Text;
		UPDATE videos SET view_count = COALESCE(view_count, 0) + 1 WHERE video_id = $video_id
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$video_id", types.TextValue(videoID)),
			),
		)
		return err
	})
}

// CreateSession inserts one viewing session.
func (c *YDBClient) CreateSession(ctx context.Context, s *Session) error {
	query := `
		DECLARE $session_id AS Text;
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Optional<Text>;
		DECLARE $device_info AS Optional<Text>;
		DECLARE $is_active AS Bool;
		DECLARE $started_at AS Timestamp;
		DECLARE $last_active_at AS Timestamp;

		REPLACE INTO sessions (
			session_id, user_id, video_id, device_info, is_active, started_at, last_active_at
		) VALUES ($session_id, $user_id, $video_id, $device_info, $is_active, $started_at, $last_active_at)
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$session_id", types.TextValue(s.SessionID)),
				table.ValueParam("$user_id", types.TextValue(s.UserID)),
				optText("$video_id", s.VideoID),
				optText("$device_info", s.DeviceInfo),
				table.ValueParam("$is_active", types.BoolValue(s.IsActive)),
				table.ValueParam("$started_at", types.TimestampValueFromTime(s.StartedAt)),
				table.ValueParam("$last_active_at", types.TimestampValueFromTime(s.LastActiveAt)),
			),
		)
		return err
	})
}

// GetSession reads one session by id.
func (c *YDBClient) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	query := `
		DECLARE $session_id AS Text;
		SELECT session_id, user_id, video_id, device_info, is_active, started_at, last_active_at
		FROM sessions WHERE session_id = $session_id
	`

	var s Session
	var found bool

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$session_id", types.TextValue(sessionID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			found = true
			if err := scanSession(res.ScanNamed, &s); err != nil {
				return err
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, app_errors.New(app_errors.CodeNotFound, "session not found")
	}

	return &s, nil
}

func scanSession(scan scanNamedFunc, s *Session) error {
	var isActive *bool
	var startedAt, lastActiveAt *time.Time

	err := scan(
		named.Required("session_id", &s.SessionID),
		named.Required("user_id", &s.UserID),
		named.Optional("video_id", &s.VideoID),
		named.Optional("device_info", &s.DeviceInfo),
		named.Optional("is_active", &isActive),
		named.Optional("started_at", &startedAt),
		named.Optional("last_active_at", &lastActiveAt),
	)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if isActive != nil {
		s.IsActive = *isActive
	}
	if startedAt != nil {
		s.StartedAt = *startedAt
	}
	if lastActiveAt != nil {
		s.LastActiveAt = *lastActiveAt
	}
	return nil
}

// CountActiveSessions counts the caller's sessions with is_active=true.
// This read backs the soft session ceiling: two concurrent grant requests
// can both pass it, which is accepted behavior.
func (c *YDBClient) CountActiveSessions(ctx context.Context, userID string) (int, error) {
	query := `
		DECLARE $user_id AS Text;
		SELECT COUNT(*) AS cnt FROM sessions WHERE user_id = $user_id AND is_active = true
	`

	var count uint64

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$user_id", types.TextValue(userID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			if err := res.ScanNamed(named.Required("cnt", &count)); err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
		}
		return res.Err()
	})

	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// TouchSession updates the session heartbeat timestamp.
func (c *YDBClient) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	query := `
		DECLARE $session_id AS Text;
		DECLARE $last_active_at AS Timestamp;
		UPDATE sessions SET last_active_at = $last_active_at WHERE session_id = $session_id
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$session_id", types.TextValue(sessionID)),
				table.ValueParam("$last_active_at", types.TimestampValueFromTime(at)),
			),
		)
		return err
	})
}

// DeactivateSession flips is_active to false. The transition is one-way, so
// last-writer-wins between concurrent sweeps is harmless.
func (c *YDBClient) DeactivateSession(ctx context.Context, sessionID string) error {
	query := `
		DECLARE $session_id AS Text;
		UPDATE sessions SET is_active = false WHERE session_id = $session_id
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$session_id", types.TextValue(sessionID)),
			),
		)
		return err
	})
}

// ListActiveSessionsIdleSince returns active sessions whose heartbeat is
// older than cutoff.
func (c *YDBClient) ListActiveSessionsIdleSince(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	query := `
		DECLARE $cutoff AS Timestamp;
		SELECT session_id, user_id, video_id, device_info, is_active, started_at, last_active_at
		FROM sessions
		WHERE is_active = true AND last_active_at < $cutoff
	`

	var sessions []*Session

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$cutoff", types.TimestampValueFromTime(cutoff)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var s Session
				if err := scanSession(res.ScanNamed, &s); err != nil {
					return err
				}
				sessions = append(sessions, &s)
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateAccessLog appends one grant-issuance audit entry.
func (c *YDBClient) CreateAccessLog(ctx context.Context, entry *AccessLog) error {
	query := `
		DECLARE $access_id AS Text;
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Text;
		DECLARE $ts AS Timestamp;
		DECLARE $ip_address AS Text;
		DECLARE $user_agent AS Text;

		REPLACE INTO video_access (
			access_id, user_id, video_id, ts, ip_address, user_agent
		) VALUES ($access_id, $user_id, $video_id, $ts, $ip_address, $user_agent)
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$access_id", types.TextValue(entry.AccessID)),
				table.ValueParam("$user_id", types.TextValue(entry.UserID)),
				table.ValueParam("$video_id", types.TextValue(entry.VideoID)),
				table.ValueParam("$ts", types.TimestampValueFromTime(entry.Timestamp)),
				table.ValueParam("$ip_address", types.TextValue(entry.IPAddress)),
				table.ValueParam("$user_agent", types.TextValue(entry.UserAgent)),
			),
		)
		return err
	})
}

// ListAccessLogs reads audit entries matching the filter, newest first.
func (c *YDBClient) ListAccessLogs(ctx context.Context, filter *AccessLogFilter) ([]*AccessLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Text;
		DECLARE $from AS Timestamp;
		DECLARE $to AS Timestamp;
		DECLARE $limit AS Uint64;

		SELECT access_id, user_id, video_id, ts, ip_address, user_agent
		FROM video_access
		WHERE ($user_id = '' OR user_id = $user_id)
		  AND ($video_id = '' OR video_id = $video_id)
		  AND ts >= $from AND ts <= $to
		ORDER BY ts DESC
		LIMIT $limit
	`

	from := time.Unix(0, 0)
	if filter.From != nil {
		from = *filter.From
	}
	to := time.Now().Add(time.Hour)
	if filter.To != nil {
		to = *filter.To
	}

	var entries []*AccessLog

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$user_id", types.TextValue(filter.UserID)),
				table.ValueParam("$video_id", types.TextValue(filter.VideoID)),
				table.ValueParam("$from", types.TimestampValueFromTime(from)),
				table.ValueParam("$to", types.TimestampValueFromTime(to)),
				table.ValueParam("$limit", types.Uint64Value(uint64(limit))),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var e AccessLog
				var ts *time.Time
				var ip, ua *string
				err := res.ScanNamed(
					named.Required("access_id", &e.AccessID),
					named.Required("user_id", &e.UserID),
					named.Required("video_id", &e.VideoID),
					named.Optional("ts", &ts),
					named.Optional("ip_address", &ip),
					named.Optional("user_agent", &ua),
				)
				if err != nil {
					return fmt.Errorf("scan failed: %w", err)
				}
				if ts != nil {
					e.Timestamp = *ts
				}
				if ip != nil {
					e.IPAddress = *ip
				}
				if ua != nil {
					e.UserAgent = *ua
				}
				entries = append(entries, &e)
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateUploadRecord tracks a staged file for the upload sweep.
func (c *YDBClient) CreateUploadRecord(ctx context.Context, record *UploadRecord) error {
	query := `
		DECLARE $upload_id AS Text;
		DECLARE $backend_locator AS Text;
		DECLARE $storage_path AS Text;
		DECLARE $status AS Text;
		DECLARE $created_at AS Timestamp;

		REPLACE INTO video_uploads (
			upload_id, backend_locator, storage_path, status, created_at
		) VALUES ($upload_id, $backend_locator, $storage_path, $status, $created_at)
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$upload_id", types.TextValue(record.UploadID)),
				table.ValueParam("$backend_locator", types.TextValue(record.BackendLocator)),
				table.ValueParam("$storage_path", types.TextValue(record.StoragePath)),
				table.ValueParam("$status", types.TextValue(record.Status)),
				table.ValueParam("$created_at", types.TimestampValueFromTime(record.CreatedAt)),
			),
		)
		return err
	})
}

// GetUploadRecord reads one staging record.
func (c *YDBClient) GetUploadRecord(ctx context.Context, uploadID string) (*UploadRecord, error) {
	query := `
		DECLARE $upload_id AS Text;
		SELECT upload_id, backend_locator, storage_path, status, created_at
		FROM video_uploads WHERE upload_id = $upload_id
	`

	var r UploadRecord
	var found bool

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$upload_id", types.TextValue(uploadID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			found = true
			var locator, storagePath, status *string
			var createdAt *time.Time
			err := res.ScanNamed(
				named.Required("upload_id", &r.UploadID),
				named.Optional("backend_locator", &locator),
				named.Optional("storage_path", &storagePath),
				named.Optional("status", &status),
				named.Optional("created_at", &createdAt),
			)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			if locator != nil {
				r.BackendLocator = *locator
			}
			if storagePath != nil {
				r.StoragePath = *storagePath
			}
			if status != nil {
				r.Status = *status
			}
			if createdAt != nil {
				r.CreatedAt = *createdAt
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, app_errors.New(app_errors.CodeNotFound, "upload record not found")
	}

	return &r, nil
}

// ListUploadRecordsOlderThan returns staging records created before cutoff.
func (c *YDBClient) ListUploadRecordsOlderThan(ctx context.Context, cutoff time.Time) ([]*UploadRecord, error) {
	query := `
		DECLARE $cutoff AS Timestamp;
		SELECT upload_id, backend_locator, storage_path, status, created_at
		FROM video_uploads
		WHERE created_at < $cutoff
	`

	var records []*UploadRecord

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$cutoff", types.TimestampValueFromTime(cutoff)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var r UploadRecord
				var locator, storagePath, status *string
				var createdAt *time.Time
				err := res.ScanNamed(
					named.Required("upload_id", &r.UploadID),
					named.Optional("backend_locator", &locator),
					named.Optional("storage_path", &storagePath),
					named.Optional("status", &status),
					named.Optional("created_at", &createdAt),
				)
				if err != nil {
					return fmt.Errorf("scan failed: %w", err)
				}
				if locator != nil {
					r.BackendLocator = *locator
				}
				if storagePath != nil {
					r.StoragePath = *storagePath
				}
				if status != nil {
					r.Status = *status
				}
				if createdAt != nil {
					r.CreatedAt = *createdAt
				}
				records = append(records, &r)
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteUploadRecord removes a staging record after its file is gone.
func (c *YDBClient) DeleteUploadRecord(ctx context.Context, uploadID string) error {
	query := `
		DECLARE $upload_id AS Text;
		DELETE FROM video_uploads WHERE upload_id = $upload_id
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$upload_id", types.TextValue(uploadID)),
			),
		)
		return err
	})
}

// GetWatchProgress reads the previous playback position for one user/video.
func (c *YDBClient) GetWatchProgress(ctx context.Context, userID, videoID string) (*WatchProgress, error) {
	query := `
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Text;
		SELECT user_id, video_id, position, updated_at
		FROM watch_history
		WHERE user_id = $user_id AND video_id = $video_id
	`

	var p WatchProgress
	var found bool

	err := c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, res, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$user_id", types.TextValue(userID)),
				table.ValueParam("$video_id", types.TextValue(videoID)),
			),
		)
		if err != nil {
			return err
		}
		defer res.Close()

		if res.NextResultSet(ctx) && res.NextRow() {
			found = true
			var position *int64
			var updatedAt *time.Time
			err := res.ScanNamed(
				named.Required("user_id", &p.UserID),
				named.Required("video_id", &p.VideoID),
				named.Optional("position", &position),
				named.Optional("updated_at", &updatedAt),
			)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			if position != nil {
				p.Position = *position
			}
			if updatedAt != nil {
				p.UpdatedAt = *updatedAt
			}
		}
		return res.Err()
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, app_errors.New(app_errors.CodeNotFound, "watch progress not found")
	}

	return &p, nil
}

// PutWatchProgress upserts the playback position.
func (c *YDBClient) PutWatchProgress(ctx context.Context, progress *WatchProgress) error {
	query := `
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Text;
		DECLARE $position AS Int64;
		DECLARE $updated_at AS Timestamp;

		REPLACE INTO watch_history (user_id, video_id, position, updated_at)
		VALUES ($user_id, $video_id, $position, $updated_at)
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$user_id", types.TextValue(progress.UserID)),
				table.ValueParam("$video_id", types.TextValue(progress.VideoID)),
				table.ValueParam("$position", types.Int64Value(progress.Position)),
				table.ValueParam("$updated_at", types.TimestampValueFromTime(progress.UpdatedAt)),
			),
		)
		return err
	})
}

// CreateSuspiciousActivity records one anomaly flag.
func (c *YDBClient) CreateSuspiciousActivity(ctx context.Context, activity *SuspiciousActivity) error {
	query := `
		DECLARE $activity_id AS Text;
		DECLARE $user_id AS Text;
		DECLARE $video_id AS Text;
		DECLARE $activity_type AS Text;
		DECLARE $position_delta AS Double;
		DECLARE $wall_clock_delta AS Double;
		DECLARE $ratio AS Double;
		DECLARE $ts AS Timestamp;

		REPLACE INTO suspicious_activity (
			activity_id, user_id, video_id, activity_type,
			position_delta, wall_clock_delta, ratio, ts
		) VALUES ($activity_id, $user_id, $video_id, $activity_type, $position_delta, $wall_clock_delta, $ratio, $ts)
	`

	return c.driver.Table().Do(ctx, func(ctx context.Context, session table.Session) error {
		_, _, err := session.Execute(ctx, table.DefaultTxControl(), query,
			table.NewQueryParameters(
				table.ValueParam("$activity_id", types.TextValue(activity.ActivityID)),
				table.ValueParam("$user_id", types.TextValue(activity.UserID)),
				table.ValueParam("$video_id", types.TextValue(activity.VideoID)),
				table.ValueParam("$activity_type", types.TextValue(activity.ActivityType)),
				table.ValueParam("$position_delta", types.DoubleValue(activity.PositionDelta)),
				table.ValueParam("$wall_clock_delta", types.DoubleValue(activity.WallClockDelta)),
				table.ValueParam("$ratio", types.DoubleValue(activity.Ratio)),
				table.ValueParam("$ts", types.TimestampValueFromTime(activity.Timestamp)),
			),
		)
		return err
	})
}

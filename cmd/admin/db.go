package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type dbStats struct {
	Chunks     int64  `json:"chunks"`
	TotalBytes int64  `json:"total_bytes"`
	MaxBytes   int64  `json:"max_bytes"`
	MinCX      int64  `json:"min_cx"`
	MaxCX      int64  `json:"max_cx"`
	MinCZ      int64  `json:"min_cz"`
	MaxCZ      int64  `json:"max_cz"`
	UpdatedAt  string `json:"last_updated"`
}

type dbRow struct {
	CX        int64  `json:"cx"`
	CZ        int64  `json:"cz"`
	SizeBytes int64  `json:"size_bytes"`
	UpdatedAt string `json:"updated_at"`
}

// dbCmd queries the sqlite chunk table directly, without decoding records.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/chunks.sqlite)")
	limit := fs.Int("limit", 20, "result limit (recent)")
	_ = fs.Parse(args)

	q := "stats"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "chunks.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	enc := json.NewEncoder(os.Stdout)
	switch q {
	case "stats":
		st, err := queryStats(db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		_ = enc.Encode(st)
	case "recent":
		rows, err := queryRecent(db, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			_ = enc.Encode(r)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want stats|recent)")
		os.Exit(2)
	}
}

func queryStats(db *sql.DB) (dbStats, error) {
	var st dbStats
	err := db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(size_bytes),0), COALESCE(MAX(size_bytes),0),
		COALESCE(MIN(cx),0), COALESCE(MAX(cx),0),
		COALESCE(MIN(cz),0), COALESCE(MAX(cz),0),
		COALESCE(MAX(updated_at),'') FROM chunks`).Scan(
		&st.Chunks, &st.TotalBytes, &st.MaxBytes,
		&st.MinCX, &st.MaxCX, &st.MinCZ, &st.MaxCZ, &st.UpdatedAt)
	return st, err
}

func queryRecent(db *sql.DB, limit int) ([]dbRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT cx,cz,size_bytes,updated_at FROM chunks ORDER BY updated_at DESC, cx, cz LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dbRow
	for rows.Next() {
		var r dbRow
		if err := rows.Scan(&r.CX, &r.CZ, &r.SizeBytes, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

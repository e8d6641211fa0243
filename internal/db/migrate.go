package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// ApplyMigrations executes the SQL files under root in lexical order.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, root string) error {
	files, err := WalkFS(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return err
		}
		for _, stmt := range SplitStatements(string(content)) {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("exec %s: %w", path.Base(file), err)
			}
		}
	}
	return nil
}

// WalkFS lists .sql files below root, sorted.
func WalkFS(fsys fs.FS, root string) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// SplitStatements splits a migration on semicolons, dropping blanks and
// full-line comments.
func SplitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if s := strings.TrimSpace(strings.Join(lines, "\n")); s != "" {
			out = append(out, s)
		}
	}
	return out
}

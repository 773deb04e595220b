package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/itemdb/internal/model"
)

// DefaultItemDBTables — таблицы в порядке применения: item_db2 переопределяет item_db.
var DefaultItemDBTables = []string{"item_db", "item_db2"}

// sqlItemColumns — 24 колонки SQL-таблицы. atk/matk и уровни min/max хранятся
// раздельно и склеиваются в "a:b", чтобы строка совпадала с текстовым форматом.
const sqlItemColumns = `id, name_english, name_japanese, type, price_buy, price_sell, weight,
	atk, matk, defence, range, slots, equip_jobs, equip_upper, equip_genders,
	equip_locations, weapon_level, equip_level_min, equip_level_max, refineable, view,
	script, equip_script, unequip_script`

// ItemDBRepository читает определения предметов из SQL.
type ItemDBRepository struct {
	db     *pgxpool.Pool
	tables []string
}

// NewItemDBRepository создаёт репозиторий. Без tables используются DefaultItemDBTables.
func NewItemDBRepository(db *pgxpool.Pool, tables ...string) *ItemDBRepository {
	if len(tables) == 0 {
		tables = DefaultItemDBTables
	}
	return &ItemDBRepository{db: db, tables: tables}
}

// ItemRows returns every row of every table, table by table, ordered by id.
// NULL columns come back as empty strings.
func (r *ItemDBRepository) ItemRows(ctx context.Context) ([]model.ItemRow, error) {
	var out []model.ItemRow
	for _, table := range r.tables {
		rows, err := r.tableRows(ctx, table)
		if err != nil {
			return nil, err
		}
		slog.Debug("read sql item db", "table", table, "rows", len(rows))
		out = append(out, rows...)
	}
	return out, nil
}

func (r *ItemDBRepository) tableRows(ctx context.Context, table string) ([]model.ItemRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, sqlItemColumns, pgx.Identifier{table}.Sanitize())

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.ItemRow
	line := 0
	for rows.Next() {
		line++
		var (
			id, typ, weight                       int32
			nameEnglish, nameJapanese             string
			buy, sell, atk, matk, def, rng, slots *int32
			jobs                                  *int64
			upper, genders, locations, wlv        *int32
			lvMin, lvMax, refineable, view        *int32
			script, equipScript, unequipScript    *string
		)
		if err := rows.Scan(
			&id, &nameEnglish, &nameJapanese, &typ, &buy, &sell, &weight,
			&atk, &matk, &def, &rng, &slots, &jobs, &upper, &genders,
			&locations, &wlv, &lvMin, &lvMax, &refineable, &view,
			&script, &equipScript, &unequipScript,
		); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}

		fields := []string{
			fmt.Sprint(id), nameEnglish, nameJapanese, fmt.Sprint(typ),
			optInt(buy), optInt(sell), fmt.Sprint(weight),
			pair(atk, matk), optInt(def), optInt(rng), optInt(slots),
			optJobs(jobs), optInt(upper), optInt(genders), optInt(locations),
			optInt(wlv), pair(lvMin, lvMax), optInt(refineable), optInt(view),
			optString(script), optString(equipScript), optString(unequipScript),
		}
		out = append(out, model.ItemRow{Source: table, Line: line, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return out, nil
}

// InsertItemRow writes one definition in the 22-field layout into table.
func (r *ItemDBRepository) InsertItemRow(ctx context.Context, table string, f []string) error {
	if len(f) != 22 {
		return fmt.Errorf("item row has %d fields, want 22", len(f))
	}
	atk, matk := splitPair(f[7])
	lvMin, lvMax := splitPair(f[16])

	var conv intConverter
	values := []any{
		conv.int(f[0]), f[1], f[2], conv.int(f[3]), conv.int(f[4]), conv.int(f[5]), conv.int(f[6]),
		conv.int(atk), conv.int(matk), conv.int(f[8]), conv.int(f[9]), conv.int(f[10]),
		conv.int(f[11]), conv.int(f[12]), conv.int(f[13]), conv.int(f[14]),
		conv.int(f[15]), conv.int(lvMin), conv.int(lvMax), conv.int(f[17]), conv.int(f[18]),
		nullable(f[19]), nullable(f[20]), nullable(f[21]),
	}
	if conv.err != nil {
		return fmt.Errorf("item row %s: %w", f[0], conv.err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		pgx.Identifier{table}.Sanitize(), sqlItemColumns)

	if _, err := r.db.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("inserting item %s into %s: %w", f[0], table, err)
	}
	return nil
}

// intConverter разбирает числовые колонки; пустая колонка становится NULL.
// Запоминает первую ошибку.
type intConverter struct {
	err error
}

func (c *intConverter) int(s string) any {
	s = strings.TrimSpace(s)
	if s == "" || c.err != nil {
		return nil
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		c.err = fmt.Errorf("column %q: %w", s, err)
		return nil
	}
	return v
}

func optInt(v *int32) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func optJobs(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("0x%08X", uint32(*v))
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func pair(a, b *int32) string {
	if b == nil {
		return optInt(a)
	}
	return optInt(a) + ":" + fmt.Sprint(*b)
}

func splitPair(s string) (string, string) {
	a, b, _ := strings.Cut(s, ":")
	return a, b
}

// nullable turns an empty text column into SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

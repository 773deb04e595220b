package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/udisondev/itemdb/internal/testutil"
)

// RepositorySuite shares one PostgreSQL container between all repository tests.
type RepositorySuite struct {
	suite.Suite
	pool *pgxpool.Pool
	ctx  context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.pool = testutil.SetupTestDB(s.T())
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = testutil.ContextWithTimeout(s.T(), 30*time.Second)
	_, err := s.pool.Exec(s.ctx, `TRUNCATE item_db, item_db2`)
	s.Require().NoError(err)
	_, err = s.pool.Exec(s.ctx, `UPDATE interreg SET value = '0' WHERE varname = 'unique_id'`)
	s.Require().NoError(err)
}

func (s *RepositorySuite) TestItemRows_RoundTrip() {
	repo := NewItemDBRepository(s.pool)

	knife := testutil.ItemFields("1201", "Knife", "Knife", "4")
	knife[4] = "50"
	knife[7] = "17:5"
	knife[11] = "0xFFFFFFFF"
	knife[14] = "2"
	knife[16] = "10:99"
	knife[19] = "bonus bStr,1;"
	s.Require().NoError(repo.InsertItemRow(s.ctx, "item_db", knife))

	potion := testutil.ItemFields("501", "Red_Potion", "Red Potion", "0")
	potion[5] = "25"
	s.Require().NoError(repo.InsertItemRow(s.ctx, "item_db", potion))

	override := testutil.ItemFields("501", "Red_Potion", "Red Potion", "0")
	override[4] = "60"
	s.Require().NoError(repo.InsertItemRow(s.ctx, "item_db2", override))

	rows, err := repo.ItemRows(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)

	// item_db ordered by id, then item_db2
	s.Equal("item_db", rows[0].Source)
	s.Equal("501", rows[0].Fields[0])
	s.Equal("", rows[0].Fields[4], "NULL buy price stays empty")
	s.Equal("25", rows[0].Fields[5])
	s.Equal("", rows[0].Fields[7], "NULL atk and matk stay empty")

	k := rows[1].Fields
	s.Require().Len(k, 22)
	s.Equal("1201", k[0])
	s.Equal("17:5", k[7])
	s.Equal("0xFFFFFFFF", k[11])
	s.Equal("10:99", k[16])
	s.Equal("bonus bStr,1;", k[19])
	s.Equal("", k[20])

	s.Equal("item_db2", rows[2].Source)
	s.Equal(1, rows[2].Line)
	s.Equal("60", rows[2].Fields[4])
}

func (s *RepositorySuite) TestItemRows_TableSelection() {
	s.Require().NoError(NewItemDBRepository(s.pool).InsertItemRow(s.ctx, "item_db2",
		testutil.ItemFields("7001", "Custom_Box", "Custom Box", "11")))

	rows, err := NewItemDBRepository(s.pool, "item_db").ItemRows(s.ctx)
	s.Require().NoError(err)
	s.Empty(rows)

	rows, err = NewItemDBRepository(s.pool, "item_db2").ItemRows(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("Custom_Box", rows[0].Fields[1])
}

func (s *RepositorySuite) TestInsertItemRow_Invalid() {
	repo := NewItemDBRepository(s.pool)

	s.Error(repo.InsertItemRow(s.ctx, "item_db", []string{"1"}))
	s.Error(repo.InsertItemRow(s.ctx, "item_db", testutil.ItemFields("abc", "Bad", "Bad", "3")))

	_, err := NewItemDBRepository(s.pool, "no_such_table").ItemRows(s.ctx)
	s.Error(err)
}

func (s *RepositorySuite) TestUniqueID() {
	repo := NewInterRegRepository(s.pool)

	v, err := repo.LoadUniqueID(s.ctx)
	s.Require().NoError(err)
	s.Zero(v)

	s.Require().NoError(repo.SaveUniqueID(s.ctx, 1<<40))
	v, err = repo.LoadUniqueID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1<<40), v)

	_, err = s.pool.Exec(s.ctx, `DELETE FROM interreg`)
	s.Require().NoError(err)
	v, err = repo.LoadUniqueID(s.ctx)
	s.Require().NoError(err)
	s.Zero(v)

	// Upsert recreates the row.
	s.Require().NoError(repo.SaveUniqueID(s.ctx, 7))
	v, err = repo.LoadUniqueID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(7), v)
}

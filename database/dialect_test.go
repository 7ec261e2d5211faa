package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertStatement(t *testing.T) {
	tests := []struct {
		driver string
		policy ConflictPolicy
		expect string
	}{
		{
			"sqlite", ConflictSkip,
			`INSERT INTO "books" ("booknum", "bookname", "testament", "category") VALUES (?, ?, ?, ?) ON CONFLICT ("booknum") DO NOTHING`,
		},
		{
			"postgres", ConflictSkip,
			`INSERT INTO "books" ("booknum", "bookname", "testament", "category") VALUES ($1, $2, $3, $4) ON CONFLICT ("booknum") DO NOTHING`,
		},
		{
			"pgx", ConflictUpdate,
			`INSERT INTO "books" ("booknum", "bookname", "testament", "category") VALUES ($1, $2, $3, $4) ON CONFLICT ("booknum") DO UPDATE SET "bookname" = excluded."bookname", "testament" = excluded."testament", "category" = excluded."category"`,
		},
		{
			"mysql", ConflictSkip,
			"INSERT INTO `books` (`booknum`, `bookname`, `testament`, `category`) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE `booknum` = `booknum`",
		},
		{
			"mysql", ConflictUpdate,
			"INSERT INTO `books` (`booknum`, `bookname`, `testament`, `category`) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE `bookname` = VALUES(`bookname`), `testament` = VALUES(`testament`), `category` = VALUES(`category`)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.driver+"/"+string(tc.policy), func(t *testing.T) {
			d, err := dialectFor(tc.driver)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, d.insertStatement("books", referenceColumns, tc.policy))
		})
	}
}

func TestSelectPageStatement(t *testing.T) {
	pg, err := dialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "words" ORDER BY "wordid" LIMIT $1 OFFSET $2`, pg.selectPageStatement("words", "wordid"))

	my, err := dialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `words` ORDER BY `wordid` LIMIT ? OFFSET ?", my.selectPageStatement("words", "wordid"))
}

func TestQuoteSchemaQualified(t *testing.T) {
	pg, err := dialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, `"public"."words"`, pg.quote("public.words"))
	assert.Equal(t, `"odd""name"`, pg.quote(`odd"name`))

	my, err := dialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, "`bible`.`words`", my.quote("bible.words"))
}

func TestQuoteCatalogNameKeepsDots(t *testing.T) {
	pg, err := dialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, `"v1.words"`, pg.quoteName("v1.words"))
	assert.Equal(t, `SELECT COUNT(*) FROM "v1.words"`, pg.countCatalogStatement("v1.words"))

	my, err := dialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, "`v1.words`", my.quoteName("v1.words"))
}

func TestHasTableStatement(t *testing.T) {
	pg, err := dialectFor("postgres")
	require.NoError(t, err)

	query, args := pg.hasTableStatement("public.words")
	assert.Equal(t, "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2", query)
	assert.Equal(t, []interface{}{"public", "words"}, args)

	lite, err := dialectFor("sqlite")
	require.NoError(t, err)
	query, args = lite.hasTableStatement("words")
	assert.Equal(t, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE", query)
	assert.Equal(t, []interface{}{"words"}, args)
}

func TestDialectForUnknownDriver(t *testing.T) {
	_, err := dialectFor("oracle")
	require.Error(t, err)
}

package redis

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/wikiquery/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsRedisErr(t *testing.T) {
	serverErr := mock.Result(mock.RedisError("Unknown Index name")).Error()

	if !isRedisErr(serverErr, "unknown index name") {
		t.Error("expected case-insensitive match on a server error")
	}
	if isRedisErr(serverErr, "already exists") {
		t.Error("unexpected match")
	}
	if isRedisErr(errors.New("unknown index name"), "unknown index name") {
		t.Error("client-side errors are not server errors")
	}
}

func TestWaitForReady_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("wikiquery:articles"))))

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_NoQueryEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG"))).
		AnyTimes()
	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisError("ERR unknown command 'FT._LIST'"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, errNoQueryEngine) {
		t.Fatalf("expected errNoQueryEngine, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in %v", err)
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "article:1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "article:1", map[string]string{"title": "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "article:1", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHMGetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HMGET", "article:1", "article_id", "title"),
			mock.Match("HMGET", "article:2", "article_id", "title"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisString("1"), mock.RedisString("Go"))),
			mock.Result(mock.RedisArray(mock.RedisNil(), mock.RedisNil())),
		})

	s := NewStoreForTest(c)
	results, err := s.HMGetMulti(context.Background(),
		[]string{"article:1", "article:2"}, []string{"article_id", "title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["title"] != "Go" || results[0]["article_id"] != "1" {
		t.Errorf("unexpected first result: %v", results[0])
	}
	if results[1] != nil {
		t.Errorf("missing key must yield nil map, got %v", results[1])
	}
}

func TestHMGetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	results, err := s.HMGetMulti(context.Background(), nil, []string{"title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

func TestHMGetMulti_NoFields(t *testing.T) {
	s := NewStoreForTest(nil)
	if _, err := s.HMGetMulti(context.Background(), []string{"k"}, nil); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("article:1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("article:2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "article:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(keys, []string{"article:1", "article:2"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "idx", "ON", "HASH", "PREFIX", "1", "article:",
			"SCHEMA",
			"article_id", "NUMERIC", "SORTABLE",
			"title", "TEXT", "NOSTEM", "WEIGHT", "2",
			"categories", "TAG", "SEPARATOR", "|", "CASESENSITIVE",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	def := db.NewIndex("idx").
		Prefix("article:").
		Numeric("article_id").Sortable().
		TextWithOpts("title", 2, true).
		TagWithOpts("categories", "|", true).
		MustBuild()

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), db.NewIndex("idx").Text("title").MustBuild())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestDropIndex_DeleteDocs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx", "DD")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "idx", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "idx", false)
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx")))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
			Return(mock.Result(mock.RedisError("Unknown index name"))),
	)

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "idx")
	if err != nil || !ok {
		t.Fatalf("expected exists, got %v %v", ok, err)
	}
	ok, err = s.IndexExists(context.Background(), "idx")
	if err != nil || ok {
		t.Fatalf("expected absent, got %v %v", ok, err)
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	if _, err := buildFieldArgs(&db.IndexField{Type: db.IndexFieldTag}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := buildFieldArgs(&db.IndexField{Name: "x", Type: db.IndexFieldType(99)}); err == nil {
		t.Error("expected error for unknown type")
	}
}

// --- search.go tests ---

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "idx", `@content:("programming language" | %pyton%)`,
			"WITHSCORES", "NOCONTENT", "LIMIT", "0", "100", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("article:2"),
			mock.RedisString("1.5"),
			mock.RedisString("article:1"),
			mock.RedisString("0.5"),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "idx",
		Field:     "content",
		Terms:     []db.TextTerm{{Text: "programming language"}, {Text: "pyton", Fuzzy: true}},
		TopK:      100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Entries[0].Key != "article:2" || result.Entries[0].Score != 1.5 {
		t.Errorf("unexpected first entry %+v", result.Entries[0])
	}
}

func TestSearchText_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "idx", Field: "title", Terms: []db.TextTerm{{Text: "nothing"}}, TopK: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestSearchText_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "idx", Field: "title", Terms: []db.TextTerm{{Text: "go"}}, TopK: 10,
	})
	if !isDBError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline db.Error, got %v", err)
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()
	terms := []db.TextTerm{{Text: "go"}}

	if _, err := s.SearchText(ctx, &db.TextQuery{Field: "title", Terms: terms, TopK: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Terms: terms, TopK: 10}); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Field: "title", Terms: terms}); err == nil {
		t.Error("expected error for topK=0")
	}
	blank := []db.TextTerm{{Text: "   "}}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Field: "title", Terms: blank, TopK: 1}); err == nil {
		t.Error("expected error for blank terms")
	}
}

func TestSearchTag_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "idx", `@categories:{Programming\ languages | People}`,
			"NOCONTENT", "LIMIT", "0", "500", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("article:1"),
			mock.RedisString("article:4"),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchTag(context.Background(), &db.TagQuery{
		IndexName: "idx",
		Field:     "categories",
		Values:    []string{"Programming languages", "People"},
		Limit:     500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || result.Entries[1].Key != "article:4" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSearchTag_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.SearchTag(ctx, &db.TagQuery{IndexName: "idx", Field: "f", Limit: 1}); err == nil {
		t.Error("expected error for no values")
	}
	if _, err := s.SearchTag(ctx, &db.TagQuery{IndexName: "idx", Field: "f", Values: []string{"a"}}); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestBuildTextQuery(t *testing.T) {
	tests := []struct {
		name string
		q    db.TextQuery
		want string
	}{
		{
			name: "and",
			q:    db.TextQuery{Field: "title", Terms: []db.TextTerm{{Text: "go"}, {Text: "google"}}, MatchAll: true},
			want: "@title:(go google)",
		},
		{
			name: "or",
			q:    db.TextQuery{Field: "title", Terms: []db.TextTerm{{Text: "go"}, {Text: "google"}}},
			want: "@title:(go | google)",
		},
		{
			name: "fuzzy phrase",
			q:    db.TextQuery{Field: "content", Terms: []db.TextTerm{{Text: "progamming langauge", Fuzzy: true}}, MatchAll: true},
			want: "@content:((%progamming% %langauge%))",
		},
		{
			name: "escaped",
			q:    db.TextQuery{Field: "title", Terms: []db.TextTerm{{Text: "C++"}}, MatchAll: true},
			want: `@title:(C\+\+)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTextQuery(&tt.q); got != tt.want {
				t.Errorf("buildTextQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTagQuery_Escapes(t *testing.T) {
	got := buildTagQuery("title_tag", []string{"C++ (language)"})
	want := `@title_tag:{C\+\+\ \(language\)}`
	if got != want {
		t.Errorf("buildTagQuery() = %q, want %q", got, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	input := `hello "world" @user {tag}`
	escaped := escapeQuery(input)
	expected := `hello \"world\" \@user \{tag\}`
	if escaped != expected {
		t.Errorf("expected %q, got %q", expected, escaped)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

// Package wikiquery embeds the article query pipeline in a Go program.
//
// The client talks to the same backends as the wikiquery server: Redis
// (full-text index and article hashes) plus Neo4j (link graph), or an
// in-process corpus for tests and small datasets.
//
//	client, _ := wikiquery.New(ctx,
//	    wikiquery.WithRedis("localhost:6379", ""),
//	    wikiquery.WithNeo4j("neo4j://localhost:7687", "neo4j", "secret"),
//	)
//	defer client.Close()
//
//	page, _ := client.Query().
//	    Match(wikiquery.FieldContent, "programming language").
//	    WithinDistance(1, 2, wikiquery.Outgoing).
//	    Categories("People").
//	    OrderBy(wikiquery.SortByTitle, wikiquery.Asc).
//	    Limit(10).
//	    FetchTitles(ctx)
//
// Filter families (text, graph, identity) always combine with AND, as do the
// filters within a family.
package wikiquery

// Package prodex embeds the prodex product search engine in a Go program,
// backed by Redis. It exposes the same catalog, semantic search and
// reindexing behavior as the HTTP service without running a server.
//
//	client, _ := prodex.New(ctx,
//	    prodex.WithRedis("localhost:6379", ""),
//	    prodex.WithEmbedder(myEmbedder),
//	    prodex.WithVectorDimensions(768),
//	)
//	defer client.Close()
//
//	_ = client.Products().Put(ctx, prodex.Product{ID: "p1", Name: "Laptop Pro", Price: 1299})
//	_, _ = client.Reindex(ctx, false)
//	res, _ := client.Search(ctx, "light laptop for travel", prodex.Limit(10), prodex.MaxPrice(1500))
//
// Without an embedder, search degrades to keyword ranking and Reindex
// fails with ErrProviderUnavailable.
package prodex

// Package venuesearch embeds the venue search engine in a Go program.
//
// Offers live in a local SQLite file. Queries run through the same
// slot-extraction, hybrid retrieval, validation and composition stages
// as the HTTP service.
//
//	client, _ := venuesearch.New(ctx,
//	    venuesearch.WithSQLite("data/venues.db"),
//	    venuesearch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_, _ = client.LoadCSV(ctx, "data/vendors.csv", false)
//	_, _ = client.BuildIndexes(ctx)
//	res, _ := client.Search(ctx, "sunset yacht for 25 people", venuesearch.Filters{City: "Dubai"})
//	fmt.Println(res.Answer)
//
// Without a completion provider the engine still answers: extraction falls
// back to the applied filters and answers are rendered from templates.
package venuesearch

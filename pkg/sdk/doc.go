// Package artpair embeds the food-to-art pairing engine in a Go program
// without running the HTTP server.
//
// A Client loads the recipe and artwork tables once, builds the TF-IDF spaces
// and then answers pairing requests from memory:
//
//	client, _ := artpair.New(ctx,
//	    artpair.WithRecipes(artpair.Source{Path: "data/recipes.csv"}),
//	    artpair.WithArtworks(artpair.Source{Path: "data/artworks.parquet"}),
//	)
//	res, _ := client.Pair(ctx, "warm tomato basil soup")
//	fmt.Println(res.Recipe.Recipe.Name, res.Artworks[0].Artwork.Title)
//
// Tables already in memory can be passed directly:
//
//	client, _ := artpair.New(ctx, artpair.WithRows(recipes, artworks))
//
// Image synthesis is optional and plugs in through WithImageSynthesizer.
package artpair

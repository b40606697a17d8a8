// Package sfclient is the entry point for constructing clients.
//
// New returns a sforce.SalesforceClient: it fetches an OAuth2 token with the
// password grant, points the client at the instance_url of the token, loads
// the built-in Salesforce resource catalog and registers every sobject of the
// org (or the whitelisted ones) so they can be addressed by short name.
//
// NewGeneric returns a sforce.ModelClient for any REST API described by a
// resource tree, given inline or through a tree source.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/sforce/pkg/sforce"
//	  "github.com/fivetwenty-io/sforce/pkg/sfclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // A declarative client for any REST API.
//	  api, err := sfclient.NewGeneric(ctx, &sforce.Config{
//	    BaseURL:  "https://api.example.com",
//	    RootPath: "rest/v1.0/",
//	    Tree: sforce.Tree{
//	      "customers": {Class: "json", Resources: sforce.Tree{
//	        "search": {Path: "search/?name={name}"},
//	      }},
//	    },
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  found, err := api.Get(ctx, "customers.search", sforce.Params{"name": "Ada"}, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = found
//
//	  // A Salesforce org.
//	  sf, err := sfclient.NewWithPassword(ctx, "user@example.com", "secret", "SECTOKEN", "key", "secret")
//	  if err != nil { log.Fatal(err) }
//
//	  records, err := sf.Query(ctx, "SELECT Id, Name FROM Account")
//	  if err != nil { log.Fatal(err) }
//	  _ = records
//	}
//
// Resource trees can also be loaded from files or NATS JetStream key-value
// buckets by setting Config.TreeSource to "file:resources.yml" or
// "nats://127.0.0.1:4222/trees/myapi".
package sfclient

// Package sforce provides the types and interfaces of a declarative REST
// resource-tree client, and of its Salesforce flavour.
//
// # Overview
//
// A client is described by a resource tree: a nested mapping from names to
// nodes, each carrying an optional path template, a class and sub-resources.
// Every node becomes a resource type whose name is the dotted path of its
// ancestors ("chatter.feeds") and whose path is the concatenation of their
// templates ("chatter/feeds/"). Classes select the behavior: content format,
// allowed verbs, and how the path is addressed (plain, date range, instance
// id, external id, collection, or bound to a local record).
//
// Getting a client
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
//	  cli, err := sfclient.New(ctx, &sforce.Config{
//	    TokenURL:     "https://login.salesforce.com/services/oauth2/token",
//	    Username:     "user@example.com",
//	    Password:     "secret",
//	    ClientID:     "key",
//	    ClientSecret: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  account, err := cli.Get(ctx, "Account", sforce.Params{"id": "001D000000IqhSLIAZ"}, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = account
//	}
//
// # Errors
//
// All errors wrap one of the sentinels in errors.go. APIError carries the
// method, URL, status codes and vendor error payload of a failed call.
//
// # Model synchronization
//
// Classes with a ModelSpec map remote fields to attributes of a local Record.
// ModelClient.Pull copies remote values into the record, ModelClient.Push
// creates or updates the remote object.
package sforce

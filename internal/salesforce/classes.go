// Package salesforce layers the Salesforce REST API over the generic resource
// client: vendor classes, the built-in resource catalog, OAuth2 sessions,
// sobjects discovery and the short-name alias.
package salesforce

import (
	"net/http"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/registry"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Class keys registered by Register.
const (
	ClassSalesforce = "salesforce"
	ClassDeleted    = "deleted"
	ClassUpdated    = "updated"
	ClassInstance   = "sf_instance"
	ClassExternalID = "sf_external_id"
	ClassQuery      = "query"
	ClassQueryAll   = "query_all"
	ClassSearch     = "search"
	ClassSObject    = "sobject"
	ClassSObjects   = "sobjects"
)

// Resource is the class every Salesforce resource derives from: JSON, read
// only, errors reported under errorCode.
func Resource() sforce.Class {
	return sforce.Class{
		Format:   sforce.FormatJSON,
		Methods:  []string{http.MethodGet},
		ErrorKey: constants.ErrorKey,
		Timeout:  constants.SalesforceTimeout,
	}
}

func derive(fn func(*sforce.Class)) sforce.Class {
	class := Resource()
	fn(&class)

	return class
}

// Classes returns the Salesforce classes keyed by name.
func Classes() map[string]sforce.Class {
	return map[string]sforce.Class{
		ClassSalesforce: Resource(),
		ClassDeleted: derive(func(c *sforce.Class) {
			c.Path = "deleted/?start={start}&end={end}"
			c.Addressing = sforce.AddressDateRange
		}),
		ClassUpdated: derive(func(c *sforce.Class) {
			c.Path = "updated/?start={start}&end={end}"
			c.Addressing = sforce.AddressDateRange
		}),
		ClassInstance: derive(func(c *sforce.Class) {
			c.Addressing = sforce.AddressInstance
		}),
		ClassExternalID: derive(func(c *sforce.Class) {
			c.Addressing = sforce.AddressExternalID
		}),
		ClassQuery: derive(func(c *sforce.Class) {
			c.Path = "query/?q={q}"
		}),
		ClassQueryAll: derive(func(c *sforce.Class) {
			c.Path = "queryAll/?q={q}"
		}),
		ClassSearch: derive(func(c *sforce.Class) {
			c.Path = "search/?q={q}"
		}),
		// An sobject resource addresses both /Foo/ and /Foo/{id}/.
		ClassSObject: derive(func(c *sforce.Class) {
			c.Addressing = sforce.AddressCollection
			c.Methods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}
		}),
		ClassSObjects: Resource(),
	}
}

// NewClasses returns the generic classes plus the Salesforce ones.
func NewClasses() *registry.Classes {
	classes := registry.NewClasses()
	classes.RegisterAll(Classes())

	return classes
}

package salesforce

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fivetwenty-io/sforce/internal/client"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// SObject is one entry of the sobjects listing.
type SObject struct {
	Name string
	URLs map[string]string
}

// ParseSObjects reads the "sobjects" list of a discovery payload.
func ParseSObjects(payload sforce.Payload) ([]SObject, error) {
	fields, ok := sforce.Fields(payload)
	if !ok {
		return nil, fmt.Errorf("%w: sobjects listing is not an object", sforce.ErrParse)
	}

	list, ok := fields["sobjects"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: sobjects listing has no sobjects list", sforce.ErrParse)
	}

	objects := make([]SObject, 0, len(list))

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		name, _ := entry["name"].(string)
		if name == "" {
			continue
		}

		object := SObject{Name: name, URLs: map[string]string{}}

		urls, _ := entry["urls"].(map[string]any)
		for key, value := range urls {
			object.URLs[key] = fmt.Sprint(value)
		}

		objects = append(objects, object)
	}

	return objects, nil
}

// SObjectsTree turns a discovery listing into the nodes to register below
// sobjects. Every object gets one sub-resource per listed url, except the
// redundant sobject url, plus updated and deleted which the listing omits.
// An empty whitelist keeps every object.
func SObjectsTree(objects []SObject, whitelist []string) sforce.Tree {
	tree := sforce.Tree{}

	for _, object := range objects {
		if len(whitelist) > 0 && !slices.Contains(whitelist, object.Name) {
			continue
		}

		sub := sforce.Tree{}

		for key, url := range object.URLs {
			if key == "sobject" {
				continue
			}

			sub[key] = sforce.Node{Path: subPath(object.URLs["sobject"], key, url)}
		}

		sub["updated"] = sforce.Node{Class: ClassUpdated}
		sub["deleted"] = sforce.Node{Class: ClassDeleted}

		tree[object.Name] = sforce.Node{Class: ClassSObject, Resources: sub}
	}

	return tree
}

// subPath is url relative to the object url, so rowTemplate becomes {ID}/.
// Urls living elsewhere fall back to key/.
func subPath(objectURL, key, url string) string {
	if objectURL != "" {
		if rel, ok := strings.CutPrefix(url, strings.TrimSuffix(objectURL, "/")+"/"); ok && rel != "" {
			return strings.TrimSuffix(rel, "/") + "/"
		}
	}

	return key + "/"
}

// Discover lists the sobjects of the org and registers them below sobjects.
func Discover(ctx context.Context, cli *client.Client, whitelist []string) (sforce.Tree, error) {
	payload, err := cli.Get(ctx, constants.SObjectsNamespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing sobjects: %w", err)
	}

	objects, err := ParseSObjects(payload)
	if err != nil {
		return nil, err
	}

	tree := SObjectsTree(objects, whitelist)

	err = cli.Extend(constants.SObjectsNamespace, tree)
	if err != nil {
		return nil, fmt.Errorf("registering sobjects: %w", err)
	}

	cli.Logger().Info("Discovered sobjects", map[string]interface{}{
		"listed":     len(objects),
		"registered": len(tree),
	})

	return tree, nil
}

// Alias resolves a bare object name such as Account to sobjects.Account when
// that resource is registered.
func Alias(name string, has func(string) bool) string {
	prefix := constants.SObjectsNamespace + sforce.SubResourceSeparator
	if strings.HasPrefix(name, prefix) {
		return name
	}

	if proxy := prefix + name; has(proxy) {
		return proxy
	}

	return name
}

/*
Package dsl provides a Go DSL for programmatically constructing statement trees.

Trees are plain Go values: there is no parser. The helpers wrap typed Go
functions into the untyped predicates and selectors of pkg/domain, so tree
definitions get compile-time checking and IDE completion.

Example usage:

	tree, err := dsl.Tree[orders.Order]("order-confirmation",
		dsl.If(func(ctx context.Context, o orders.Order) (bool, error) {
			return o.Customer.IsVIP(), nil
		},
			dsl.Each(func(ctx context.Context, o orders.Order) ([]orders.OrderItem, error) {
				return o.Items, nil
			}, dsl.Do("send-confirmation")),
		),
	)

The tree id is persisted in every checkpoint and must change whenever the
shape of the tree changes.
*/
package dsl

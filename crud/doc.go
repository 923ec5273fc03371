// Package crud synthesizes generic list, create, retrieve, update and destroy
// HTTP endpoints for any model held in a schema registry.
//
// A Synthesizer binds a registry to a store. For each model reference it
// produces a mapper that exposes every field, a matcher that turns query
// parameters into exact-match filters, five handlers and the route
// descriptors that register them:
//
//	reg, _ := schema.NewRegistry(models...)
//	syn := crud.New(crud.Options{Registry: reg, Store: memstore.New(), Prefix: "/api"})
//	routes, err := syn.Routes(schema.NewRef("shop", "widget"))
//
// The generated paths are
//
//	/api/widget/list            GET
//	/api/widget/create          POST
//	/api/widget/retrieve/{pk}   GET
//	/api/widget/update/{pk}     PUT, PATCH
//	/api/widget/destroy/{pk}    DELETE
//
// Validation failures answer 400 with a field map, missing records answer 404
// with {"detail":"Not found."} and destroy answers 204 with no body.
package crud

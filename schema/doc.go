/*
Package schema holds the model metadata every generated endpoint is built from.

A Model is an app namespace, a type name and an ordered list of Field
descriptors with exactly one primary key. Models are declared in YAML and kept
in a Registry, which resolves a Ref ("app.name") to its Model:

	models:
	  - app: shop
	    name: widget
	    fields:
	      - {name: id, type: integer, primary_key: true, auto: true}
	      - {name: name, type: string, required: true, max_length: 64}
	      - {name: price, type: integer, required: true}

Field.Coerce converts wire, query-string and storage values into one canonical
Go representation (string, int64, float64, bool, time.Time) so that mappers,
matchers and stores compare values the same way.
*/
package schema

// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/rewind/internal/adapters/schema"
)

// AnalyticsSchemaYAML is a small analytics catalogue with a polymorphic attribute hierarchy.
const AnalyticsSchemaYAML = `name: analytics
discriminator:
  field: type
  names:
    metricAttribute: Metric
    normalAttribute: Normal
types:
  - name: Query
    fields:
      - {name: dataset, type: Dataset}
      - {name: chart, type: Chart}
  - name: DomainObject
    kind: interface
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
  - name: Attribute
    kind: interface
    implements: [DomainObject]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: displayName, wire: display_name, type: String}
  - name: Metric
    implements: [Attribute]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: displayName, wire: display_name, type: String}
      - {name: aggMethod, type: AggMethod}
  - name: Normal
    implements: [Attribute]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: displayName, wire: display_name, type: String}
      - {name: dbColumn, type: String}
  - name: AggMethod
    kind: enum
  - name: User
    implements: [DomainObject]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: email, type: String}
  - name: Dataset
    implements: [DomainObject]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: rowCount, type: Int}
      - {name: tags, type: "[String!]"}
      - {name: attributes, type: "[Attribute!]!"}
      - {name: dimensions, type: "[Normal!]"}
      - {name: primaryMetric, type: Attribute}
      - {name: owner, type: User}
      - {name: objects, type: "[DomainObject!]"}
  - name: Chart
    implements: [DomainObject]
    fields:
      - {name: id, type: ID!}
      - {name: name, type: String}
      - {name: dataset, type: Dataset}
      - {name: attributes, type: "[Attribute!]"}
`

// AnalyticsSchema parses AnalyticsSchemaYAML.
func AnalyticsSchema(t testing.TB) *schema.Catalog {
	t.Helper()
	c, err := schema.Parse([]byte(AnalyticsSchemaYAML))
	require.NoError(t, err)
	return c
}

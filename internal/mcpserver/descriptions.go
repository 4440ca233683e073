package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and what is returned.

func describeBuildGraph() string {
	return `Builds the object-oriented coupling graph of a PHP codebase and returns it in full.

USE WHEN:
- Visualizing how classes, interfaces and traits depend on one another
- Feeding the graph to another tool (Graphviz, Mermaid renderers)
- Comparing the structure of two revisions (set ref)

INTERPRETING RESULTS:
- Vertex kinds: Class, Interface, Trait, Method (a public signature), Impl (a method body), Param
- Edge relations are derived from the endpoint kinds:
  implements, extends, uses (type to type),
  declares (type to Method), signature (Method to Param), typed_as (Param to type),
  owns / owned_by (type and its Impl), implemented_by (Method to Impl),
  honors (Impl to Param), calls (Impl to Method), instantiates (Impl to Class)
- Calls on receivers of unknown type link to every Method of that name,
  so a method name shared by many types fans out widely
- Types outside the analyzed paths never appear as vertices

METRICS RETURNED:
- json/toon: fingerprint, order (vertices), size (edges), nodes, links with relation
- dot/mermaid: a diagram source, one node per vertex and one arrow per edge`
}

func describeCodeMetrics() string {
	return `Computes coupling metrics over the graph of a PHP codebase.

USE WHEN:
- Sizing a codebase in OO terms before a refactoring
- Finding the types and methods everything else depends on
- Detecting inheritance cycles and mutually recursive methods
- Reviewing how much of the codebase a single class drags in

INTERPRETING RESULTS:
- Cardinals: vertices per kind, plus method declarations per declaring kind
- Centrality: PageRank over the graph; high scores mark hubs whose change ripples widely
- Hierarchy cycles: types that transitively extend or implement each other (a code defect)
- Call cycles: implementations that reach each other through signatures (recursion across types)
- Reach: number of classes and interfaces a class depends on transitively;
  reach close to the total type count means the class is coupled to nearly everything
- Stats: fallback_calls counts calls whose receiver type was unknown;
  a high share means the graph over-approximates calls

METRICS RETURNED:
- files, partial (parsed around syntax errors), failed (unreadable)
- stats: calls, self_calls_filtered, excluded_calls, fallback_calls,
  dangling_calls, instantiations, unknown_instantiations
- metrics: cardinals, centrality, hierarchy_cycles, call_cycles, reach`
}

func describeVertexSuccessors() string {
	return `Lists the outgoing edges of one vertex of the coupling graph.

USE WHEN:
- Drilling into a class found by code_metrics
- Answering "what does this method call" or "which classes implement this signature"
- Walking the graph step by step instead of loading it whole

INTERPRETING RESULTS:
- Name a Class, Interface or Trait by its fully qualified name (App\Service)
- Name a Method or Impl as Type::method (App\Service::run)
- Name a Param as Type::method/N with N the zero-based position
- A Method's successors are its params and the Impl bodies honoring it
- An Impl's successors are its owner, its params and everything it calls or instantiates

METRICS RETURNED:
- vertex: the queried vertex
- successors: kind, name and relation of every edge leaving it, in insertion order`
}

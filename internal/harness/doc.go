// Package harness provides conformance testing for camlq specs.
//
// A scenario loads CUE specs, seeds a throwaway store with the lists they
// declare (plus any YAML catalogs), compiles one named query against a
// snapshot of that store and checks the CAML it produces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: fellowships_closing
//	description: "Open fellowships, soonest first"
//	specs:
//	  - ../specs/grants.cue
//	catalogs:
//	  - ../catalogs/extra.yaml
//	query: fellowships
//	expect:
//	  filter: '<Where><Eq>...</Eq></Where>'
//	  order_by: '<OrderBy>...</OrderBy>'
//
// Expectation fields are optional and compared exactly. An expectation of
// error_code (e.g. AMBIGUOUS_DISPLAY_NAME) asserts that compilation fails
// and cannot be combined with fragment expectations.
//
// # Golden Files
//
// RunWithGolden snapshots the full output as JSON under
// testdata/golden/{name}.golden. The camlq test command keeps its golden
// files next to the scenarios in golden/.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/fellowships.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness

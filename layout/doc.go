// Package layout maps logical state values onto texture channels, textures
// onto draw passes, and derive edges onto the minimal set of texture samples
// each pass must fetch.
//
// The stages are pure functions of a Spec: Pack orders values, GroupValues
// bins them into textures and passes, and MapSamples resolves dependencies.
// Map runs all three after validation; Pipeline memoizes the result.
package layout

// Package ctorflow recovers which struct field each constructor parameter
// initializes by following the constructor's SSA form.
//
// Every SSA value gets an origin: 0 for the allocation of the constructed
// value, 1..N for the N parameters and N+1 for anything else. Field stores
// and setter calls on origin 0 whose value has a parameter origin record a
// correspondence. Stores of another constructor's result into an embedded
// field are analyzed recursively and remapped through the call arguments.
package ctorflow

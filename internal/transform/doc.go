// Package transform defines the transformation pipeline that reshapes a
// checked-out origin tree before it is written to the destination. A
// Transformation acts on a shared Work context; transformations compose into
// sequences that reverse element-wise in reversed order, and an explicit
// reversal pairs independently supplied forward and backward sequences.
package transform

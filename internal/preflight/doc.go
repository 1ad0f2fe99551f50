// Package preflight validates a run before the first external command is
// started.
//
// The package validates:
//   - the reference FASTA and the reads file exist and are readable
//   - the bwa and prophex executables can be resolved
//   - the reference directory is writable (index artifacts are written
//     next to the reference)
//   - free disk space is plausible for the index (warning only)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, inputs)
//	if failed, ok := checker.FirstCritical(results); ok {
//	    // Handle failed
//	}
//
// RunInputs runs only the two input file checks, for runs that skip the
// rest.
package preflight

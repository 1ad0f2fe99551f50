// Package pipeline runs the index, k-LCP and query stages in order.
//
// Each stage is a short list of external commands executed through a
// runner.Executor. Stages never retry and never terminate the process: the
// first failing command stops the stage and its error is returned to the
// caller, which decides how to exit.
//
// Artifacts written next to the reference FASTA:
//
//	<fa>.pac, <fa>.ann, <fa>.amb   bwa fa2pac
//	<fa>.bwt                       bwa pac2bwtgen, bwa bwtupdate
//	<fa>.sa                        bwa bwt2sa
//	<fa>.<k>.klcp                  prophex build (rolling window only)
package pipeline

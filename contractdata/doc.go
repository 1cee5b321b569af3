// Package contractdata archives the validated contract inputs of a task or
// process instantiation so they can be read back after the submission.
package contractdata

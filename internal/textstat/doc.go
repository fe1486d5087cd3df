// Package textstat computes text statistics used by the content scoring:
// keyword salience (TF-IDF), Flesch readability and sentiment polarity.
//
// All functions are safe for concurrent use.
package textstat

// Package files opens downloaded files and their folders with the desktop's default applications.
package files

/*
Package hearth implements the business intellingence of the Hearth launcher application.

The project has three main source packages:
`cmd`: Main applications, tools and libraries.
`internal`: Private application and library code.
`pkg`: Library code that's ok to use by external applications
*/
package hearth

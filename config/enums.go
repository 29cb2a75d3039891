package config

// Built-in style transformer applied to every compiled declaration.
// ENUM(logical, px2rem)
type TransformerName string

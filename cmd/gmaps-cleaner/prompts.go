package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var stdin = bufio.NewReader(os.Stdin)

func prompt(message string) (string, error) {
	fmt.Fprintf(os.Stdout, "%s: ", message)
	input, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func promptWithDefault(message, defaultValue string) (string, error) {
	input, err := prompt(fmt.Sprintf("%s [%s]", message, defaultValue))
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

func confirm(message string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}
	input, err := prompt(fmt.Sprintf("%s [%s]", message, defaultStr))
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	if input == "" {
		return defaultValue, nil
	}
	return input == "y" || input == "yes", nil
}

func promptInt(message string, defaultValue int) (int, error) {
	input, err := promptWithDefault(message, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s': %w", input, err)
	}
	return value, nil
}

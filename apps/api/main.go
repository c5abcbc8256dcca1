package main

func main() {
	startManual()
}
